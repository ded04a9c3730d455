package usecase

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	actionmodel "sagachat/go-backend/internal/domains/actions/model"
	"sagachat/go-backend/pkg/models"
)

var ErrInvalidSignature = errors.New("invalid signature")

// VerifyDetached is the bare predicate: it reports whether signatureB64 is a
// valid Ed25519 signature by signerAddress over the UTF-8 bytes of message.
// Malformed encodings and wrong lengths are simply false.
func VerifyDetached(message, signatureB64, signerAddress string) bool {
	pub, err := models.DecodeWalletAddress(signerAddress)
	if err != nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, []byte(message), sig)
}

// Verify rebuilds the canonical message from action and checks signed against
// it. The client's canonical text, when present, must match the rebuilt one
// byte for byte; it is never used as the signed input. Every rejection wraps
// ErrInvalidSignature.
func Verify(action actionmodel.Action, signed models.SignedAction) (models.ActionVerdict, error) {
	if err := actionmodel.Validate(action); err != nil {
		return models.ActionVerdict{}, err
	}
	expected := action.Canonical()
	if signed.CanonicalMessage != "" && signed.CanonicalMessage != expected {
		return models.ActionVerdict{}, fmt.Errorf("%w: canonical message does not match action fields", ErrInvalidSignature)
	}
	if bound := action.BoundWallet(); bound != "" && bound != signed.SignerAddress {
		return models.ActionVerdict{}, fmt.Errorf("%w: signer is not the wallet named by the action", ErrInvalidSignature)
	}
	if !VerifyDetached(expected, signed.Signature, signed.SignerAddress) {
		return models.ActionVerdict{}, ErrInvalidSignature
	}
	return models.ActionVerdict{
		Valid:            true,
		Kind:             string(action.Kind()),
		SignerAddress:    signed.SignerAddress,
		CanonicalMessage: expected,
	}, nil
}
