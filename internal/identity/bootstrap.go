package identity

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"sagachat/go-backend/internal/crypto"
	"sagachat/go-backend/internal/hwsigner"
	"sagachat/go-backend/internal/platform/privacylog"
	"sagachat/go-backend/pkg/models"
)

const bootstrapComponentName = "identity"

// ErrSignatureMismatch means the wallet returned a challenge signature that
// does not verify under its own key. Deriving from it would bind the wrong
// encryption key to the wallet.
var ErrSignatureMismatch = errors.New("challenge signature does not verify against wallet key")

// KeyPublisher is the registry side of bootstrap.
type KeyPublisher interface {
	Publish(ctx context.Context, walletAddress string, key [32]byte) (models.PublishResult, error)
}

type Bootstrapper struct {
	signer   hwsigner.Signer
	registry KeyPublisher
	session  *Session
	logger   *slog.Logger
}

// NewBootstrapper wires the signer, registry and session. A nil registry skips
// publication, which is how the CLI runs offline.
func NewBootstrapper(signer hwsigner.Signer, registry KeyPublisher, session *Session, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if signer == nil {
		signer = hwsigner.Unavailable{}
	}
	return &Bootstrapper{
		signer:   hwsigner.Serialize(signer),
		registry: registry,
		session:  session,
		logger:   logger,
	}
}

// Bootstrap asks the wallet to sign SignInChallenge, derives the encryption
// keypair, publishes its public half and loads the session. The session is
// only touched once every step has succeeded.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (models.Identity, models.PublishResult, error) {
	if !hwsigner.Available(b.signer) {
		return models.Identity{}, models.PublishResult{}, hwsigner.ErrSigningUnavailable
	}
	walletKey := ed25519.PublicKey(b.signer.PublicKey())
	wallet, err := models.WalletAddressFromKey(walletKey)
	if err != nil {
		return models.Identity{}, models.PublishResult{}, err
	}

	corr := privacylog.FingerprintID(wallet)

	challenge := []byte(SignInChallenge)
	signature, err := b.signer.SignMessage(ctx, challenge)
	if err != nil {
		if hwsigner.IsCancelled(err) {
			b.logInfo("bootstrap", corr, "sign-in cancelled")
		}
		return models.Identity{}, models.PublishResult{}, err
	}
	if !ed25519.Verify(walletKey, challenge, signature) {
		b.logWarn("bootstrap", corr, "challenge signature rejected")
		return models.Identity{}, models.PublishResult{}, ErrSignatureMismatch
	}

	seed, err := DeriveSeed(signature)
	if err != nil {
		return models.Identity{}, models.PublishResult{}, err
	}
	defer seed.Wipe()
	kp := KeypairFromSeed(seed)
	defer kp.Wipe()

	var result models.PublishResult
	if b.registry != nil {
		result, err = b.registry.Publish(ctx, wallet, kp.PublicKey)
		if err != nil {
			return models.Identity{}, models.PublishResult{}, fmt.Errorf("publish encryption key: %w", err)
		}
		if result.Rotated {
			b.logWarn("bootstrap", corr, "encryption key rotated; peers lose access to older ciphertext")
		}
	}

	b.session.Load(wallet, seed)
	b.logInfo("bootstrap", corr, "identity ready", "created", result.Created, "unchanged", result.Unchanged)
	return models.Identity{
		WalletAddress:       wallet,
		EncryptionPublicKey: crypto.EncodePublicKey(kp.PublicKey),
	}, result, nil
}

func (b *Bootstrapper) logInfo(operation, correlationID, message string, attrs ...any) {
	base := []any{
		"component", bootstrapComponentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
	b.logger.Info(message, append(base, attrs...)...)
}

func (b *Bootstrapper) logWarn(operation, correlationID, message string, attrs ...any) {
	base := []any{
		"component", bootstrapComponentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
	b.logger.Warn(message, append(base, attrs...)...)
}
