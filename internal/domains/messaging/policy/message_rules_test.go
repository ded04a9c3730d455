package policy

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"sagachat/go-backend/pkg/models"
)

func TestValidateComposeInput(t *testing.T) {
	wallet, _ := models.WalletAddressFromKey(bytes.Repeat([]byte{1}, 32))

	recipient, content, err := ValidateComposeInput("  "+wallet+" ", " hi ")
	if err != nil || recipient != wallet || content != " hi " {
		t.Fatalf("unexpected result %q %q %v", recipient, content, err)
	}
	cases := []struct {
		name      string
		recipient string
		content   string
		want      error
	}{
		{"bad wallet", "0xabc", "hi", ErrInvalidComposeInput},
		{"blank content", wallet, "   ", ErrInvalidComposeInput},
		{"too large", wallet, strings.Repeat("a", MaxContentBytes+1), ErrContentTooLarge},
		{"invalid utf8", wallet, "\xff\xfe", ErrContentNotUTF8},
	}
	for _, tc := range cases {
		if _, _, err := ValidateComposeInput(tc.recipient, tc.content); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestIsOpenable(t *testing.T) {
	if IsOpenable(models.DirectMessage{IsEncrypted: true}) {
		t.Fatal("missing envelope must not be openable")
	}
	if IsOpenable(models.DirectMessage{IsEncrypted: true, Envelope: &models.EncryptedEnvelope{Ciphertext: "x"}}) {
		t.Fatal("missing nonce must not be openable")
	}
	if !IsOpenable(models.DirectMessage{IsEncrypted: true, Envelope: &models.EncryptedEnvelope{Ciphertext: "x", Nonce: "y"}}) {
		t.Fatal("complete envelope must be openable")
	}
}
