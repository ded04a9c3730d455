package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sagachat/go-backend/pkg/models"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, args...)
	if err != nil {
		t.Fatalf("sagactl %v failed: %v", args, err)
	}
	return out
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s failed: %v", name, err)
	}
	return path
}

func setupWallet(t *testing.T) (dataDir, wallet string) {
	t.Helper()
	t.Setenv("SAGA_VAULT_PASSPHRASE", "test-vault-passphrase")
	t.Setenv("SAGA_REGISTRY_URL", "")
	dataDir = t.TempDir()
	out := mustRun(t, dataDir, "keygen")
	wallet = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(out), "wallet:"))
	if !models.IsWalletAddress(wallet) {
		t.Fatalf("keygen printed invalid wallet %q", out)
	}
	return dataDir, wallet
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	dataDir, _ := setupWallet(t)
	if _, err := run(t, dataDir, "keygen"); err == nil {
		t.Fatal("second keygen without --force must fail")
	}
	mustRun(t, dataDir, "keygen", "--force")
}

func TestBootstrapEncryptDecryptRoundTrip(t *testing.T) {
	dataDir, wallet := setupWallet(t)

	var boot struct {
		Identity models.Identity      `json:"identity"`
		Publish  models.PublishResult `json:"publish"`
	}
	if err := json.Unmarshal([]byte(mustRun(t, dataDir, "bootstrap")), &boot); err != nil {
		t.Fatalf("decode bootstrap output failed: %v", err)
	}
	if boot.Identity.WalletAddress != wallet || !boot.Publish.Created {
		t.Fatalf("unexpected bootstrap result: %+v", boot)
	}

	var msg models.DirectMessage
	if err := json.Unmarshal([]byte(mustRun(t, dataDir, "encrypt", wallet, "gm frens")), &msg); err != nil {
		t.Fatalf("decode message failed: %v", err)
	}
	if !msg.IsEncrypted || msg.Envelope == nil || msg.Content != "" {
		t.Fatalf("expected an encrypted record, got %+v", msg)
	}

	raw, _ := json.Marshal(msg)
	path := writeFile(t, t.TempDir(), "msg.json", string(raw))
	if out := strings.TrimSpace(mustRun(t, dataDir, "decrypt", path)); out != "gm frens" {
		t.Fatalf("unexpected plaintext %q", out)
	}

	msg.Envelope.Ciphertext = "AAAA" + msg.Envelope.Ciphertext[4:]
	raw, _ = json.Marshal(msg)
	path = writeFile(t, t.TempDir(), "tampered.json", string(raw))
	if out := strings.TrimSpace(mustRun(t, dataDir, "decrypt", path)); out != "\U0001F512 Encrypted message" {
		t.Fatalf("tampered message must render locked, got %q", out)
	}
}

func TestEncryptFallsBackToPlaintextWithoutRecipientKey(t *testing.T) {
	dataDir, _ := setupWallet(t)
	mustRun(t, dataDir, "bootstrap")
	stranger, _ := models.WalletAddressFromKey(bytes.Repeat([]byte{5}, 32))

	var msg models.DirectMessage
	if err := json.Unmarshal([]byte(mustRun(t, dataDir, "encrypt", stranger, "hello")), &msg); err != nil {
		t.Fatalf("decode message failed: %v", err)
	}
	if msg.IsEncrypted || msg.Content != "hello" {
		t.Fatalf("expected plaintext fallback, got %+v", msg)
	}
	if _, err := run(t, dataDir, "encrypt", "--require-encryption", stranger, "hello"); err == nil {
		t.Fatal("--require-encryption must refuse the fallback")
	}
}

func TestBackupRestoreKeepsEncryptionKey(t *testing.T) {
	dataDir, wallet := setupWallet(t)
	mustRun(t, dataDir, "bootstrap", "--offline")
	phrase := strings.TrimSpace(mustRun(t, dataDir, "backup"))
	if len(strings.Fields(phrase)) < 12 {
		t.Fatalf("unexpected phrase %q", phrase)
	}

	fresh := t.TempDir()
	var restored models.Identity
	args := append([]string{"restore", "--wallet", wallet}, strings.Fields(phrase)...)
	if err := json.Unmarshal([]byte(mustRun(t, fresh, args...)), &restored); err != nil {
		t.Fatalf("decode restore output failed: %v", err)
	}
	if restored.WalletAddress != wallet {
		t.Fatalf("unexpected restored identity: %+v", restored)
	}
	if again := strings.TrimSpace(mustRun(t, fresh, "backup")); again != phrase {
		t.Fatal("restored vault must yield the same phrase")
	}
	if _, err := run(t, fresh, "restore", "--wallet", wallet, "not", "a", "phrase"); err == nil {
		t.Fatal("invalid mnemonic must fail")
	}
}

func TestSignVerifyAction(t *testing.T) {
	dataDir, wallet := setupWallet(t)
	action := `{"post_id":"p1","user_wallet_address":"` + wallet + `","timestamp":"2026-01-01T00:00:00.000Z"}`
	actionPath := writeFile(t, t.TempDir(), "like.json", action)

	signedOut := mustRun(t, dataDir, "sign", "like", actionPath)
	signedPath := writeFile(t, t.TempDir(), "signed.json", signedOut)
	var verdict models.ActionVerdict
	if err := json.Unmarshal([]byte(mustRun(t, dataDir, "verify", signedPath)), &verdict); err != nil {
		t.Fatalf("decode verdict failed: %v", err)
	}
	if !verdict.Valid || verdict.SignerAddress != wallet {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}

	tampered := strings.Replace(signedOut, `\"p1\"`, `\"p2\"`, 1)
	tampered = strings.Replace(tampered, `"post_id": "p1"`, `"post_id": "p2"`, 1)
	tamperedPath := writeFile(t, t.TempDir(), "tampered.json", tampered)
	if _, err := run(t, dataDir, "verify", tamperedPath); err == nil {
		t.Fatal("tampered action must fail verification")
	}
}

func TestGateRejectsUnknownRuleAndAdmitsEmptyRules(t *testing.T) {
	dataDir, wallet := setupWallet(t)
	dir := t.TempDir()

	bad := writeFile(t, dir, "bad.json", `[{"gate_type":"ROLE"}]`)
	if _, err := run(t, dataDir, "gate", wallet, bad); err == nil {
		t.Fatal("unknown gate type must fail")
	}

	empty := writeFile(t, dir, "empty.json", `{"rules":[]}`)
	var decision models.GateDecision
	if err := json.Unmarshal([]byte(mustRun(t, dataDir, "gate", wallet, empty)), &decision); err != nil {
		t.Fatalf("decode decision failed: %v", err)
	}
	if !decision.Admitted {
		t.Fatalf("empty rules must admit, got %+v", decision)
	}
}

func TestDecodeRulesAcceptsBothShapes(t *testing.T) {
	list, err := decodeRules([]byte(`[{"gate_type":"GENESIS"}]`))
	if err != nil || len(list) != 1 || list[0].GateType != "GENESIS" {
		t.Fatalf("array form failed: %+v %v", list, err)
	}
	wrapped, err := decodeRules([]byte(`{"rules":[{"gate_type":"NFT","mint_address":"m"}]}`))
	if err != nil || len(wrapped) != 1 || wrapped[0].MintAddress != "m" {
		t.Fatalf("object form failed: %+v %v", wrapped, err)
	}
	if _, err := decodeRules([]byte(`"nope"`)); err == nil {
		t.Fatal("expected decode error")
	}
}
