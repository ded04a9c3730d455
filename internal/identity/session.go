package identity

import (
	"errors"
	"sync"

	"sagachat/go-backend/internal/crypto"
	"sagachat/go-backend/pkg/models"
)

var ErrNoSession = errors.New("no identity session is loaded")

// Session holds the derived seed for the lifetime of a login. The secret key
// never leaves it: callers encrypt and decrypt through Seal and Open.
type Session struct {
	mu      sync.RWMutex
	wallet  string
	keypair EncryptionKeypair
	loaded  bool
}

func NewSession() *Session {
	return &Session{}
}

// Load replaces any previous material. The caller's seed copy is not retained.
func (s *Session) Load(walletAddress string, seed Seed) {
	kp := KeypairFromSeed(seed)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keypair.Wipe()
	s.wallet = walletAddress
	s.keypair = kp
	s.loaded = true
}

func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Session) Identity() (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return models.Identity{}, ErrNoSession
	}
	return models.Identity{
		WalletAddress:       s.wallet,
		EncryptionPublicKey: crypto.EncodePublicKey(s.keypair.PublicKey),
	}, nil
}

func (s *Session) PublicKey() ([32]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keypair.PublicKey, s.loaded
}

func (s *Session) Seal(plaintext string, peerPublicKey [32]byte) (models.EncryptedEnvelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return models.EncryptedEnvelope{}, ErrNoSession
	}
	return crypto.Encrypt(plaintext, &peerPublicKey, &s.keypair.SecretKey)
}

// Open reports false when no session is loaded or the envelope does not
// authenticate.
func (s *Session) Open(env models.EncryptedEnvelope, peerPublicKey [32]byte) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return "", false
	}
	return crypto.Decrypt(env, &peerPublicKey, &s.keypair.SecretKey)
}

// BackupPhrase renders the seed as a 24-word mnemonic.
func (s *Session) BackupPhrase() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return "", ErrNoSession
	}
	return PhraseFromSeed(Seed(s.keypair.SecretKey))
}

// exportSeed hands the seed to the vault for persistence.
func (s *Session) exportSeed() (Seed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Seed{}, ErrNoSession
	}
	return Seed(s.keypair.SecretKey), nil
}

// Close zeroes the secret. The published public key is left untouched.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keypair.Wipe()
	s.keypair.PublicKey = [32]byte{}
	s.wallet = ""
	s.loaded = false
}
