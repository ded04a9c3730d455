package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/nacl/box"

	"sagachat/go-backend/pkg/models"
)

const (
	KeySize   = 32
	NonceSize = 24
)

var (
	ErrInvalidPeerKey = errors.New("invalid peer key")
	ErrInvalidSecret  = errors.New("invalid local secret key")
)

// randReader is swapped in tests to force nonce failures.
var randReader io.Reader = rand.Reader

// Encrypt seals plaintext for peerPublicKey with a fresh random nonce. Both
// envelope fields are standard base64.
func Encrypt(plaintext string, peerPublicKey, localSecretKey *[KeySize]byte) (models.EncryptedEnvelope, error) {
	if peerPublicKey == nil || isZero(peerPublicKey[:]) {
		return models.EncryptedEnvelope{}, ErrInvalidPeerKey
	}
	if localSecretKey == nil || isZero(localSecretKey[:]) {
		return models.EncryptedEnvelope{}, ErrInvalidSecret
	}
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(randReader, nonce[:]); err != nil {
		return models.EncryptedEnvelope{}, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := box.Seal(nil, []byte(plaintext), &nonce, peerPublicKey, localSecretKey)
	return models.EncryptedEnvelope{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
		Nonce:      base64.StdEncoding.EncodeToString(nonce[:]),
	}, nil
}

// Decrypt opens env. It reports false for any failure: malformed encoding,
// wrong nonce length, failed authentication or non UTF-8 plaintext.
func Decrypt(env models.EncryptedEnvelope, peerPublicKey, localSecretKey *[KeySize]byte) (string, bool) {
	if peerPublicKey == nil || localSecretKey == nil {
		return "", false
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil || len(sealed) < box.Overhead {
		return "", false
	}
	rawNonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil || len(rawNonce) != NonceSize {
		return "", false
	}
	var nonce [NonceSize]byte
	copy(nonce[:], rawNonce)
	plain, ok := box.Open(nil, sealed, &nonce, peerPublicKey, localSecretKey)
	if !ok || !utf8.Valid(plain) {
		return "", false
	}
	return string(plain), true
}

func EncodePublicKey(key [KeySize]byte) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

func DecodePublicKey(raw string) ([KeySize]byte, error) {
	var out [KeySize]byte
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(b) != KeySize || isZero(b) {
		return out, ErrInvalidPeerKey
	}
	copy(out[:], b)
	return out, nil
}

func isZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}
