package securestore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// IsConfigured reports whether encrypted persistence has both a path and a passphrase.
func IsConfigured(path, passphrase string) bool {
	return strings.TrimSpace(path) != "" && strings.TrimSpace(passphrase) != ""
}

func ReadDecryptedFile(path, passphrase string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decrypt(passphrase, raw)
}

// ReadDecryptedJSON loads path into v. A missing file reports found=false.
func ReadDecryptedJSON(path, passphrase string, v any) (found bool, err error) {
	plain, err := ReadDecryptedFile(path, passphrase)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer Wipe(plain)
	if err := json.Unmarshal(plain, v); err != nil {
		return false, ErrInvalid
	}
	return true, nil
}

func WriteEncryptedFile(path, passphrase string, plaintext []byte) error {
	encrypted, err := Encrypt(passphrase, plaintext)
	if err != nil {
		return err
	}
	return writeAtomic(path, encrypted)
}

func WriteEncryptedJSON(path, passphrase string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	defer Wipe(payload)
	return WriteEncryptedFile(path, passphrase, payload)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
