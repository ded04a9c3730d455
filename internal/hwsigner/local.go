package hwsigner

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

var ErrInvalidSeed = errors.New("invalid signer seed")

// LocalSigner is a software stand-in for the wallet device, used by the CLI
// in development and by tests. Approve, when set, plays the role of the
// on-device confirmation dialog.
type LocalSigner struct {
	priv    ed25519.PrivateKey
	Approve func(ctx context.Context, message []byte) bool
}

func NewLocalSigner(seed []byte) (*LocalSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidSeed
	}
	return &LocalSigner{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func GenerateLocalSigner() (*LocalSigner, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return NewLocalSigner(seed)
}

func (s *LocalSigner) PublicKey() []byte {
	return append([]byte(nil), s.priv.Public().(ed25519.PublicKey)...)
}

// Seed returns the private seed so the CLI can persist a development wallet.
func (s *LocalSigner) Seed() []byte {
	return append([]byte(nil), s.priv.Seed()...)
}

func (s *LocalSigner) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Approve != nil && !s.Approve(ctx, message) {
		return nil, ErrUserCancelled
	}
	return ed25519.Sign(s.priv, message), nil
}
