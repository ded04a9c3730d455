package model

import (
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// canonicalObject renders alternating key/value pairs as a compact JSON
// object in the given order.
func canonicalObject(pairs ...string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(&b, pairs[i])
		b.WriteByte(':')
		writeJSONString(&b, pairs[i+1])
	}
	b.WriteByte('}')
	return b.String()
}

// writeJSONString escapes s the way ECMAScript JSON.stringify does: only the
// quote, the backslash and C0 controls are escaped, with the short forms for
// \b \f \n \r \t. Unlike encoding/json, <, > and & and U+2028/U+2029 are
// written verbatim. Invalid UTF-8 bytes become U+FFFD, matching how the
// client decoded them in the first place.
func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			case '\b':
				b.WriteString(`\b`)
			case '\f':
				b.WriteString(`\f`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				if c < 0x20 {
					b.WriteString(`\u00`)
					b.WriteByte(hexDigits[c>>4])
					b.WriteByte(hexDigits[c&0xF])
				} else {
					b.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
}
