// Package registry maps wallet addresses to published box public keys.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sagachat/go-backend/internal/crypto"
	"sagachat/go-backend/pkg/models"
)

var ErrInvalidKey = errors.New("invalid encryption public key")

// Store is the registry port. Lookup reports found=false for unknown wallets;
// it only errors when the backend itself fails.
type Store interface {
	Lookup(ctx context.Context, walletAddress string) (models.RegistryEntry, bool, error)
	Publish(ctx context.Context, walletAddress string, key [32]byte) (models.PublishResult, error)
}

// PeerKey resolves a wallet to a usable box public key. found=false with a
// nil error means the wallet has no entry; a stored key that does not decode
// is an error.
func PeerKey(ctx context.Context, s Store, walletAddress string) ([32]byte, bool, error) {
	entry, ok, err := s.Lookup(ctx, walletAddress)
	if err != nil || !ok {
		return [32]byte{}, false, err
	}
	key, err := crypto.DecodePublicKey(entry.EncryptionPublicKey)
	if err != nil {
		return [32]byte{}, false, fmt.Errorf("%w: stored entry: %w", ErrInvalidKey, err)
	}
	return key, true, nil
}

// RegistrationMessage is the text a wallet signs to authorize publishing
// encodedKey (standard base64) as its box public key. Both inputs must
// already be validated; neither alphabet needs JSON escaping.
func RegistrationMessage(walletAddress, encodedKey string) string {
	return `{"wallet_address":"` + walletAddress + `","encryption_public_key":"` + encodedKey + `"}`
}

func validatePublish(walletAddress string, key [32]byte) (string, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if !models.IsWalletAddress(walletAddress) {
		return "", models.ErrInvalidWalletAddress
	}
	if key == ([32]byte{}) {
		return "", ErrInvalidKey
	}
	return walletAddress, nil
}

func normalizeLookup(walletAddress string) (string, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if !models.IsWalletAddress(walletAddress) {
		return "", models.ErrInvalidWalletAddress
	}
	return walletAddress, nil
}

// apply decides how a publish changes prev and builds the replacement entry.
func apply(prev *models.RegistryEntry, walletAddress string, key [32]byte, now time.Time) (models.RegistryEntry, models.PublishResult) {
	encoded := crypto.EncodePublicKey(key)
	switch {
	case prev == nil:
		return models.RegistryEntry{WalletAddress: walletAddress, EncryptionPublicKey: encoded, UpdatedAt: now.UTC()}, models.PublishResult{Created: true}
	case prev.EncryptionPublicKey == encoded:
		return *prev, models.PublishResult{Unchanged: true}
	default:
		return models.RegistryEntry{WalletAddress: walletAddress, EncryptionPublicKey: encoded, UpdatedAt: now.UTC()}, models.PublishResult{Rotated: true}
	}
}
