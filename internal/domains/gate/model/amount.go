package model

import (
	"errors"
	"math/big"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid decimal amount")

// Amount is an exact non-negative decimal. The zero value is 0.
type Amount struct {
	r big.Rat
}

// ParseAmount accepts plain decimals only: digits with an optional fractional
// part ("1", "0.5", "1000.000001"). Signs, exponents and bare dots are
// rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" || !allDigits(intPart) {
		return Amount{}, ErrInvalidAmount
	}
	if hasDot && (fracPart == "" || !allDigits(fracPart)) {
		return Amount{}, ErrInvalidAmount
	}
	var a Amount
	if _, ok := a.r.SetString(s); !ok {
		return Amount{}, ErrInvalidAmount
	}
	return a, nil
}

// AmountFromRaw converts an integer base-unit amount with the given decimals.
func AmountFromRaw(raw string, decimals int) (Amount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !allDigits(raw) || decimals < 0 {
		return Amount{}, ErrInvalidAmount
	}
	num, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return Amount{}, ErrInvalidAmount
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	var a Amount
	a.r.SetFrac(num, den)
	return a, nil
}

func (a Amount) Add(b Amount) Amount {
	var out Amount
	out.r.Add(&a.r, &b.r)
	return out
}

// AtLeast reports a >= b.
func (a Amount) AtLeast(b Amount) bool {
	return a.r.Cmp(&b.r) >= 0
}

func (a Amount) IsZero() bool {
	return a.r.Sign() == 0
}

func (a Amount) String() string {
	s := a.r.FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
