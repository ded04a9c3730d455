package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tyler-smith/go-bip39"

	"sagachat/go-backend/internal/securestore"
	"sagachat/go-backend/pkg/models"
)

var (
	ErrInvalidMnemonic   = errors.New("invalid mnemonic")
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrPassphraseLocked  = errors.New("passphrase attempts are temporarily locked")
	ErrVaultEmpty        = errors.New("seed vault is empty")
)

const vaultRecordVersion = 1

type vaultRecord struct {
	Version       int    `json:"version"`
	WalletAddress string `json:"wallet_address"`
	Seed          []byte `json:"seed"`
}

// SeedVault persists the session seed under a passphrase so the next start
// does not need another hardware prompt. Wrong passphrases back off
// exponentially.
type SeedVault struct {
	mu             sync.Mutex
	path           string
	failedAttempts int
	lockedUntil    time.Time
	now            func() time.Time
}

func NewSeedVault(path string) *SeedVault {
	return &SeedVault{path: strings.TrimSpace(path), now: time.Now}
}

func newSeedVaultWithClock(path string, now func() time.Time) *SeedVault {
	return &SeedVault{path: path, now: now}
}

func (v *SeedVault) Exists() bool {
	if v.path == "" {
		return false
	}
	_, err := os.Stat(v.path)
	return err == nil
}

func (v *SeedVault) Save(session *Session, passphrase string) error {
	if v.path == "" {
		return ErrVaultEmpty
	}
	id, err := session.Identity()
	if err != nil {
		return err
	}
	seed, err := session.exportSeed()
	if err != nil {
		return err
	}
	defer seed.Wipe()
	rec := vaultRecord{Version: vaultRecordVersion, WalletAddress: id.WalletAddress, Seed: seed[:]}
	return securestore.WriteEncryptedJSON(v.path, passphrase, rec)
}

// Unlock loads the stored seed into session and returns its wallet address.
func (v *SeedVault) Unlock(session *Session, passphrase string) (string, error) {
	v.mu.Lock()
	if err := v.ensureUnlocked(); err != nil {
		v.mu.Unlock()
		return "", err
	}
	v.mu.Unlock()

	var rec vaultRecord
	found, err := securestore.ReadDecryptedJSON(v.path, passphrase, &rec)
	if errors.Is(err, securestore.ErrAuthFailed) {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.onFailedAttempt()
		return "", ErrInvalidPassphrase
	}
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrVaultEmpty
	}
	defer securestore.Wipe(rec.Seed)

	if rec.Version != vaultRecordVersion || len(rec.Seed) != SeedSize || !models.IsWalletAddress(rec.WalletAddress) {
		return "", fmt.Errorf("%w: corrupted vault record", securestore.ErrInvalid)
	}
	var seed Seed
	copy(seed[:], rec.Seed)
	defer seed.Wipe()
	session.Load(rec.WalletAddress, seed)

	v.mu.Lock()
	v.resetAttemptState()
	v.mu.Unlock()
	return rec.WalletAddress, nil
}

// Remove discards local key material. The registry entry is not touched.
func (v *SeedVault) Remove() error {
	if v.path == "" {
		return nil
	}
	if err := os.Remove(v.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (v *SeedVault) ensureUnlocked() error {
	if v.lockedUntil.IsZero() {
		return nil
	}
	if v.now().Before(v.lockedUntil) {
		return ErrPassphraseLocked
	}
	return nil
}

func (v *SeedVault) onFailedAttempt() {
	v.failedAttempts++
	v.lockedUntil = v.now().Add(failedAttemptBackoff(v.failedAttempts))
}

func (v *SeedVault) resetAttemptState() {
	v.failedAttempts = 0
	v.lockedUntil = time.Time{}
}

func failedAttemptBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// 1s, 2s, 4s... up to 32s max.
	shift := attempt - 1
	if shift > 5 {
		shift = 5
	}
	return time.Second * time.Duration(1<<shift)
}

// PhraseFromSeed encodes the 32-byte seed as 24 BIP-39 words.
func PhraseFromSeed(seed Seed) (string, error) {
	return bip39.NewMnemonic(seed[:])
}

func SeedFromPhrase(phrase string) (Seed, error) {
	phrase = strings.Join(strings.Fields(phrase), " ")
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil || len(entropy) != SeedSize {
		return Seed{}, ErrInvalidMnemonic
	}
	var seed Seed
	copy(seed[:], entropy)
	securestore.Wipe(entropy)
	return seed, nil
}

// RestoreFromPhrase loads a seed recovered from a backup phrase.
func RestoreFromPhrase(session *Session, walletAddress, phrase string) error {
	if !models.IsWalletAddress(walletAddress) {
		return models.ErrInvalidWalletAddress
	}
	seed, err := SeedFromPhrase(phrase)
	if err != nil {
		return err
	}
	defer seed.Wipe()
	session.Load(walletAddress, seed)
	return nil
}
