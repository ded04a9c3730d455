package daemon

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	vaultPassphraseEnv = "SAGA_VAULT_PASSPHRASE"
	vaultKeyWrappedEnv = "SAGA_VAULT_KEY_WRAPPED"
	vaultKeyFileName   = "vault.key"
)

var ErrVaultSecretRequired = errors.New("seed vault secret is required")
var ErrInsecureVaultKeyMode = errors.New("insecure vault key mode is forbidden in production")

// VaultPassphrase returns the secret protecting the seed vault: the
// environment first, then vault.key in dataDir, generating one for a fresh
// data dir outside production.
func VaultPassphrase(dataDir, vaultPath string) (string, error) {
	if secret := strings.TrimSpace(os.Getenv(vaultPassphraseEnv)); secret != "" {
		return secret, nil
	}
	keyPath := filepath.Join(dataDir, vaultKeyFileName)
	existing, err := os.ReadFile(keyPath)
	if err == nil {
		if secret := strings.TrimSpace(string(existing)); secret != "" {
			if policyErr := enforceVaultKeyPolicy("file"); policyErr != nil {
				return "", policyErr
			}
			return secret, nil
		}
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if policyErr := enforceVaultKeyPolicy("auto-generate"); policyErr != nil {
		return "", policyErr
	}
	if hasVaultData(vaultPath) {
		return "", fmt.Errorf("%w: %s exists but %s is missing; set %s", ErrVaultSecretRequired, vaultPath, keyPath, vaultPassphraseEnv)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := base64.RawStdEncoding.EncodeToString(buf)
	if err := WriteVaultKey(dataDir, secret); err != nil {
		return "", err
	}
	return secret, nil
}

func WriteVaultKey(dataDir, secret string) error {
	if policyErr := enforceVaultKeyPolicy("write-file"); policyErr != nil {
		return policyErr
	}
	keyPath := filepath.Join(dataDir, vaultKeyFileName)
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(keyPath, []byte(secret), 0o600)
}

func hasVaultData(vaultPath string) bool {
	if strings.TrimSpace(vaultPath) == "" {
		return false
	}
	info, err := os.Stat(vaultPath)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func enforceVaultKeyPolicy(source string) error {
	if !isProductionEnv() {
		return nil
	}
	if source == "auto-generate" {
		return fmt.Errorf(
			"%w: production requires %s; raw vault.key generation is disabled",
			ErrInsecureVaultKeyMode,
			vaultPassphraseEnv,
		)
	}
	wrapped, _ := parseBoolEnv(vaultKeyWrappedEnv)
	if wrapped {
		return nil
	}
	return fmt.Errorf(
		"%w: raw vault.key is forbidden in production; set %s or enable wrapped key flow (%s=true)",
		ErrInsecureVaultKeyMode,
		vaultPassphraseEnv,
		vaultKeyWrappedEnv,
	)
}

func isProductionEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SAGA_ENV"))) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

func parseBoolEnv(name string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
