package models

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58/base58"
)

var ErrInvalidWalletAddress = errors.New("invalid wallet address")

// WalletAddressFromKey renders an Ed25519 wallet public key in base58.
func WalletAddressFromKey(publicKey []byte) (string, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: key size %d", ErrInvalidWalletAddress, len(publicKey))
	}
	return base58.Encode(publicKey), nil
}

// DecodeWalletAddress returns the 32-byte public key behind a base58 address.
func DecodeWalletAddress(address string) (ed25519.PublicKey, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrInvalidWalletAddress
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWalletAddress, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: decoded size %d", ErrInvalidWalletAddress, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// IsWalletAddress reports whether address decodes to a 32-byte key.
func IsWalletAddress(address string) bool {
	_, err := DecodeWalletAddress(address)
	return err == nil
}
