package securestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	plain, err := Decrypt("pass", data)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(plain) != "secret" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
	if _, err := Decrypt("other", data); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed for wrong passphrase, got %v", err)
	}
}

func TestDecryptTamperedFailsDeterministically(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	data[len(data)-2] ^= 0xFF
	_, err = Decrypt("pass", data)
	if !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptRejectsPlaintextAndEmptyPassphrase(t *testing.T) {
	if _, err := Decrypt("pass", []byte(`{"seed":"x"}`)); !errors.Is(err, ErrNotEncrypted) {
		t.Fatalf("expected ErrNotEncrypted, got %v", err)
	}
	if _, err := Encrypt("  ", []byte("x")); !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("expected ErrPassphraseRequired, got %v", err)
	}
}

func TestDecryptEnvelopeRejectsKDFDowngrade(t *testing.T) {
	env, err := EncryptEnvelope("password", []byte("seed-value"))
	if err != nil {
		t.Fatalf("encrypt envelope failed: %v", err)
	}
	downgraded := *env
	downgraded.KDFMemoryKB = 8 * 1024
	if _, err := DecryptEnvelope("password", &downgraded); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for downgraded kdf, got %v", err)
	}
	malformed := *env
	malformed.Nonce = []byte{1, 2, 3}
	if _, err := DecryptEnvelope("password", &malformed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for malformed nonce, got %v", err)
	}
}

func TestEncryptedJSONFileRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vault.enc")
	type payload struct {
		Value string `json:"value"`
	}

	var missing payload
	found, err := ReadDecryptedJSON(path, "pass", &missing)
	if err != nil || found {
		t.Fatalf("expected missing file to report not found, got found=%v err=%v", found, err)
	}

	if err := WriteEncryptedJSON(path, "pass", payload{Value: "v1"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	var got payload
	found, err = ReadDecryptedJSON(path, "pass", &got)
	if err != nil || !found {
		t.Fatalf("read failed: found=%v err=%v", found, err)
	}
	if got.Value != "v1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}
