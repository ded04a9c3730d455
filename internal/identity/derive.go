package identity

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/curve25519"
)

// SignInChallenge is the fixed statement the wallet signs once per device.
// Changing it changes every derived encryption key.
const SignInChallenge = "Sign in to Saga Chat.\n\nThis signature derives your message encryption key. It does not authorize any transaction."

const SeedSize = sha256.Size

var ErrEmptySignature = errors.New("empty challenge signature")

// Seed is the secret derived from the challenge signature. It lives only in a
// Session or inside an encrypted vault file.
type Seed [SeedSize]byte

func DeriveSeed(signature []byte) (Seed, error) {
	if len(signature) == 0 {
		return Seed{}, ErrEmptySignature
	}
	return Seed(sha256.Sum256(signature)), nil
}

func (s *Seed) Wipe() {
	for i := range s {
		s[i] = 0
	}
}

func (s Seed) IsZero() bool {
	var acc byte
	for _, b := range s {
		acc |= b
	}
	return acc == 0
}

// EncryptionKeypair is the Curve25519 box keypair. SecretKey is the seed
// itself; PublicKey is its scalar multiple of the base point.
type EncryptionKeypair struct {
	PublicKey [32]byte
	SecretKey [32]byte
}

// KeypairFromSeed is a pure function of seed.
func KeypairFromSeed(seed Seed) EncryptionKeypair {
	var kp EncryptionKeypair
	kp.SecretKey = seed
	curve25519.ScalarBaseMult(&kp.PublicKey, &kp.SecretKey)
	return kp
}

func (kp *EncryptionKeypair) Wipe() {
	for i := range kp.SecretKey {
		kp.SecretKey[i] = 0
	}
}
