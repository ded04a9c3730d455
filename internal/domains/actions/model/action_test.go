package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestCanonicalFormats(t *testing.T) {
	ts := "2026-03-01T10:00:00.000Z"
	cases := []struct {
		action Action
		want   string
	}{
		{PostCreate{Content: "gm", Timestamp: ts}, `{"content":"gm","timestamp":"2026-03-01T10:00:00.000Z"}`},
		{PostDelete{ID: "p1", AuthorWalletAddress: "W1", Timestamp: ts}, `{"id":"p1","author_wallet_address":"W1","timestamp":"2026-03-01T10:00:00.000Z"}`},
		{Like{PostID: "p1", UserWalletAddress: "W1", Timestamp: ts}, `{"post_id":"p1","user_wallet_address":"W1","timestamp":"2026-03-01T10:00:00.000Z"}`},
		{Repost{OriginalPostID: "p1", ReposterWalletAddress: "W1", Timestamp: ts}, `{"original_post_id":"p1","reposter_wallet_address":"W1","timestamp":"2026-03-01T10:00:00.000Z"}`},
		{GroupMessage{Content: "hi", Timestamp: ts, ChatID: "c1"}, `{"content":"hi","timestamp":"2026-03-01T10:00:00.000Z","chatId":"c1"}`},
	}
	for _, tc := range cases {
		if got := tc.action.Canonical(); got != tc.want {
			t.Fatalf("%s canonical mismatch:\nwant %s\ngot  %s", tc.action.Kind(), tc.want, got)
		}
	}
}

func TestCanonicalEscapingMatchesJSONStringify(t *testing.T) {
	cases := map[string]string{
		`say "hi"`:        `"say \"hi\""`,
		`back\slash`:      `"back\\slash"`,
		"line\nbreak\ttab": `"line\nbreak\ttab"`,
		"<b>&</b>":        `"<b>&</b>"`,
		"sep\u2028x":      "\"sep\u2028x\"",
		"\x01\x1f":        `"\u0001\u001f"`,
		"\b\f\r":          `"\b\f\r"`,
		"emoji 🚀":         `"emoji 🚀"`,
		"bad\xffbyte":     "\"bad\uFFFDbyte\"",
	}
	for in, wantValue := range cases {
		want := `{"content":` + wantValue + `,"timestamp":"t"}`
		if got := (PostCreate{Content: in, Timestamp: "t"}).Canonical(); got != want {
			t.Fatalf("escape mismatch for %q:\nwant %s\ngot  %s", in, want, got)
		}
	}
}

func TestCanonicalIsValidJSONWithSameValues(t *testing.T) {
	a := GroupMessage{Content: "a \"quoted\" <tag>\n", Timestamp: "t", ChatID: "c"}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(a.Canonical()), &decoded); err != nil {
		t.Fatalf("canonical form must be valid JSON: %v", err)
	}
	if decoded["content"] != a.Content || decoded["chatId"] != "c" {
		t.Fatalf("unexpected decoded values: %v", decoded)
	}
}

func TestDecodeAction(t *testing.T) {
	action, err := DecodeAction(KindLike, json.RawMessage(`{"post_id":"p1","user_wallet_address":"W1","timestamp":"T1"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	like, ok := action.(Like)
	if !ok || like.PostID != "p1" || like.BoundWallet() != "W1" {
		t.Fatalf("unexpected action: %#v", action)
	}

	if _, err := DecodeAction(Kind("follow"), json.RawMessage(`{}`)); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := DecodeAction(KindLike, json.RawMessage(`{"post_id":"p1","user_wallet_address":"W1","timestamp":"T1","extra":1}`)); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for unknown field, got %v", err)
	}
	if _, err := DecodeAction(KindRepost, json.RawMessage(`{"original_post_id":"p1","timestamp":"T1"}`)); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for missing wallet, got %v", err)
	}
	if _, err := DecodeAction(KindPostCreate, json.RawMessage(`[]`)); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for non-object, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" group_message "); err != nil || k != KindGroupMessage {
		t.Fatalf("unexpected parse: %q %v", k, err)
	}
	if _, err := ParseKind("LIKE"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestFormatTimestampMatchesISOString(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 678_900_000, time.FixedZone("x", 3600))
	if got := FormatTimestamp(ts); got != "2026-01-02T02:04:05.678Z" {
		t.Fatalf("unexpected timestamp %q", got)
	}
}
