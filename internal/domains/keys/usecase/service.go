// Package usecase serves the public-key registry: wallets publish the box
// public key derived at bootstrap and peers look it up before encrypting.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sagachat/go-backend/internal/crypto"
	actionusecase "sagachat/go-backend/internal/domains/actions/usecase"
	"sagachat/go-backend/internal/domains/contracts"
	"sagachat/go-backend/internal/registry"
	"sagachat/go-backend/pkg/models"
)

var ErrUnauthorizedPublish = errors.New("registration is not signed by the wallet")

type Service struct {
	Store       contracts.KeyRegistry
	RecordError func(category string, err error)
}

func (s *Service) recordStorageError(err error) {
	if s.RecordError != nil {
		s.RecordError(contracts.ErrorCategoryStorage, err)
	}
}

func (s *Service) LookupEncryptionKey(ctx context.Context, walletAddress string) (models.RegistryEntry, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if !models.IsWalletAddress(walletAddress) {
		return models.RegistryEntry{}, models.ErrInvalidWalletAddress
	}
	entry, ok, err := s.Store.Lookup(ctx, walletAddress)
	if err != nil {
		s.recordStorageError(err)
		return models.RegistryEntry{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	if !ok {
		return models.RegistryEntry{}, contracts.ErrKeyNotFound
	}
	return entry, nil
}

// PublishEncryptionKey stores encryptionPublicKey (standard base64 of 32
// bytes) for walletAddress. signature must be the wallet's Ed25519 signature
// over registry.RegistrationMessage, so only the wallet itself can create or
// rotate its entry.
func (s *Service) PublishEncryptionKey(ctx context.Context, walletAddress, encryptionPublicKey, signature string) (models.PublishResult, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if !models.IsWalletAddress(walletAddress) {
		return models.PublishResult{}, models.ErrInvalidWalletAddress
	}
	key, err := crypto.DecodePublicKey(strings.TrimSpace(encryptionPublicKey))
	if err != nil {
		return models.PublishResult{}, fmt.Errorf("decode encryption public key: %w", err)
	}
	message := registry.RegistrationMessage(walletAddress, crypto.EncodePublicKey(key))
	if !actionusecase.VerifyDetached(message, strings.TrimSpace(signature), walletAddress) {
		return models.PublishResult{}, ErrUnauthorizedPublish
	}
	result, err := s.Store.Publish(ctx, walletAddress, key)
	if err != nil {
		s.recordStorageError(err)
		return models.PublishResult{}, contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	return result, nil
}
