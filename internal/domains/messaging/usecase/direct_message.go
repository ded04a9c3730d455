package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	actionmodel "sagachat/go-backend/internal/domains/actions/model"
	"sagachat/go-backend/internal/domains/contracts"
	"sagachat/go-backend/internal/domains/messaging/policy"
	"sagachat/go-backend/internal/registry"
	"sagachat/go-backend/pkg/models"
)

// LockedPlaceholder is shown in place of content that cannot be decrypted.
const LockedPlaceholder = "\U0001F512 Encrypted message"

var (
	ErrEncryptionUnavailable = errors.New("encryption unavailable for recipient")

	errKeysNotConfigured = errors.New("key registry is not configured")
)

// Sealer is the session surface messaging needs; *identity.Session
// satisfies it.
type Sealer interface {
	Identity() (models.Identity, error)
	Seal(plaintext string, peerPublicKey [32]byte) (models.EncryptedEnvelope, error)
	Open(env models.EncryptedEnvelope, peerPublicKey [32]byte) (string, bool)
}

type Service struct {
	Session Sealer
	Keys    contracts.KeyRegistry
	// RequireEncryption refuses the plaintext fallback.
	RequireEncryption bool
	Now               func() time.Time
	RecordError       func(category string, err error)
}

// Compose builds the outbound record. The envelope is used when the
// recipient has a published key. Plaintext with is_encrypted=false is only
// produced when the registry answers that the recipient has no entry, and
// never when RequireEncryption is set. A missing local session or key
// registry, a failed lookup, or a malformed stored key is an error wrapping
// ErrEncryptionUnavailable, never a silent downgrade to plaintext.
func (s *Service) Compose(ctx context.Context, recipient, content string) (models.DirectMessage, error) {
	recipient, content, err := policy.ValidateComposeInput(recipient, content)
	if err != nil {
		return models.DirectMessage{}, err
	}
	if s.Session == nil {
		return models.DirectMessage{}, ErrEncryptionUnavailable
	}
	self, err := s.Session.Identity()
	if err != nil {
		return models.DirectMessage{}, fmt.Errorf("%w: %w", ErrEncryptionUnavailable, err)
	}
	id, err := newMessageID()
	if err != nil {
		return models.DirectMessage{}, err
	}
	msg := models.DirectMessage{
		ID:                     id,
		SenderWalletAddress:    self.WalletAddress,
		RecipientWalletAddress: recipient,
		Timestamp:              actionmodel.FormatTimestamp(s.now()),
	}

	peerKey, found, err := s.peerKey(ctx, recipient)
	if err != nil {
		return models.DirectMessage{}, fmt.Errorf("%w: %w", ErrEncryptionUnavailable, err)
	}
	if found {
		env, err := s.Session.Seal(content, peerKey)
		if err != nil {
			s.recordError(contracts.ErrorCategoryCrypto, err)
			return models.DirectMessage{}, err
		}
		msg.IsEncrypted = true
		msg.Envelope = &env
		return models.NormalizeDirectMessage(msg), nil
	}
	if s.RequireEncryption {
		return models.DirectMessage{}, ErrEncryptionUnavailable
	}
	msg.Content = content
	return models.NormalizeDirectMessage(msg), nil
}

// Open returns the readable text of msg and whether it is locked. Failures
// never error: they render as LockedPlaceholder.
func (s *Service) Open(ctx context.Context, msg models.DirectMessage) (string, bool) {
	if msg.IsEncrypted && !policy.IsOpenable(msg) {
		return LockedPlaceholder, true
	}
	msg = models.NormalizeDirectMessage(msg)
	if !msg.IsEncrypted {
		return msg.Content, false
	}
	if s.Session == nil {
		return LockedPlaceholder, true
	}
	self, err := s.Session.Identity()
	if err != nil {
		return LockedPlaceholder, true
	}
	peerKey, found, err := s.peerKey(ctx, msg.Counterparty(self.WalletAddress))
	if err != nil || !found {
		return LockedPlaceholder, true
	}
	text, ok := s.Session.Open(*msg.Envelope, peerKey)
	if !ok {
		return LockedPlaceholder, true
	}
	return text, false
}

func (s *Service) peerKey(ctx context.Context, wallet string) ([32]byte, bool, error) {
	if s.Keys == nil {
		return [32]byte{}, false, errKeysNotConfigured
	}
	key, found, err := registry.PeerKey(ctx, s.Keys, wallet)
	if err != nil {
		category := contracts.ErrorCategoryNetwork
		if errors.Is(err, registry.ErrInvalidKey) {
			category = contracts.ErrorCategoryCrypto
		}
		s.recordError(category, err)
		return [32]byte{}, false, err
	}
	return key, found, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) recordError(category string, err error) {
	if s.RecordError != nil {
		s.RecordError(category, err)
	}
}

func newMessageID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "dm_" + hex.EncodeToString(buf), nil
}
