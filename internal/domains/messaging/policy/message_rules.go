package policy

import (
	"errors"
	"strings"
	"unicode/utf8"

	"sagachat/go-backend/pkg/models"
)

// MaxContentBytes bounds plaintext before boxing.
const MaxContentBytes = 16 << 10

var (
	ErrInvalidComposeInput = errors.New("recipient wallet address and content are required")
	ErrContentTooLarge     = errors.New("message content is too large")
	ErrContentNotUTF8      = errors.New("message content must be valid UTF-8")
)

// ValidateComposeInput trims the recipient and checks content. Content is
// returned untouched: whitespace is part of the message.
func ValidateComposeInput(recipient, content string) (string, string, error) {
	recipient = strings.TrimSpace(recipient)
	if !models.IsWalletAddress(recipient) || strings.TrimSpace(content) == "" {
		return "", "", ErrInvalidComposeInput
	}
	if len(content) > MaxContentBytes {
		return "", "", ErrContentTooLarge
	}
	if !utf8.ValidString(content) {
		return "", "", ErrContentNotUTF8
	}
	return recipient, content, nil
}

// IsOpenable reports whether an inbound record carries a usable envelope.
func IsOpenable(msg models.DirectMessage) bool {
	return msg.IsEncrypted && msg.Envelope != nil &&
		msg.Envelope.Ciphertext != "" && msg.Envelope.Nonce != ""
}
