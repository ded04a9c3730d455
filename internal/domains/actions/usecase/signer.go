package usecase

import (
	"context"
	"encoding/base64"
	"fmt"

	actionmodel "sagachat/go-backend/internal/domains/actions/model"
	"sagachat/go-backend/internal/hwsigner"
	"sagachat/go-backend/pkg/models"
)

// Signer produces SignedActions with the wallet device. It is the client
// half of the protocol; the daemon only verifies.
type Signer struct {
	device hwsigner.Signer
}

func NewSigner(device hwsigner.Signer) *Signer {
	if device == nil {
		device = hwsigner.Unavailable{}
	}
	return &Signer{device: hwsigner.Serialize(device)}
}

// Sign returns hwsigner.ErrUserCancelled untouched when the prompt is
// dismissed; no SignedAction exists in that case.
func (s *Signer) Sign(ctx context.Context, action actionmodel.Action) (models.SignedAction, error) {
	if !hwsigner.Available(s.device) {
		return models.SignedAction{}, hwsigner.ErrSigningUnavailable
	}
	if err := actionmodel.Validate(action); err != nil {
		return models.SignedAction{}, err
	}
	signer, err := models.WalletAddressFromKey(s.device.PublicKey())
	if err != nil {
		return models.SignedAction{}, err
	}
	if bound := action.BoundWallet(); bound != "" && bound != signer {
		return models.SignedAction{}, fmt.Errorf("%w: action names %s but wallet is %s", actionmodel.ErrInvalidAction, bound, signer)
	}
	canonical := action.Canonical()
	sig, err := s.device.SignMessage(ctx, []byte(canonical))
	if err != nil {
		return models.SignedAction{}, err
	}
	return models.SignedAction{
		CanonicalMessage: canonical,
		Signature:        base64.StdEncoding.EncodeToString(sig),
		SignerAddress:    signer,
	}, nil
}
