// Package hwsigner models the wallet device that signs on the user's behalf.
//
// The device owns the private key. Callers only see a public key and an
// asynchronous SignMessage call that may be rejected by the user. A rejected
// prompt is reported as ErrUserCancelled and is never a crash.
package hwsigner

import (
	"context"
	"errors"
)

var (
	ErrUserCancelled      = errors.New("signing request cancelled by user")
	ErrSigningUnavailable = errors.New("hardware signing is unavailable on this platform")
)

// Signer signs arbitrary bytes with the wallet key.
//
// A nil signature with a nil error is treated as a cancelled prompt by
// Serialized, matching wallets that resolve a dismissed dialog with null.
type Signer interface {
	PublicKey() []byte
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// IsCancelled reports whether err means the user (or the caller's context) aborted the prompt.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled) || errors.Is(err, context.Canceled)
}

// Unavailable is the signer used on platforms without a wallet bridge.
type Unavailable struct{}

func (Unavailable) PublicKey() []byte { return nil }

func (Unavailable) SignMessage(context.Context, []byte) ([]byte, error) {
	return nil, ErrSigningUnavailable
}

// Available reports whether s can be asked to sign at all. Operations should be
// disabled upfront instead of attempted when it returns false.
func Available(s Signer) bool {
	if s == nil {
		return false
	}
	if _, ok := s.(Unavailable); ok {
		return false
	}
	return len(s.PublicKey()) != 0
}
