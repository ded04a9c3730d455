// Package model defines the signed social actions and their canonical
// byte encodings. A canonical message is a single-line JSON object with a
// fixed key order; signer and verifier must produce identical bytes.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindPostCreate   Kind = "post_create"
	KindPostDelete   Kind = "post_delete"
	KindLike         Kind = "like"
	KindRepost       Kind = "repost"
	KindGroupMessage Kind = "group_message"
)

var (
	ErrUnknownKind   = errors.New("unknown action kind")
	ErrInvalidAction = errors.New("invalid action")
)

// TimestampLayout matches ECMAScript Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Action is a closed union; only the types in this package implement it.
type Action interface {
	Kind() Kind
	Canonical() string
	// BoundWallet is the wallet the payload names as its actor, or "" when
	// the canonical form carries none.
	BoundWallet() string
	validate() error
}

type PostCreate struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type PostDelete struct {
	ID                  string `json:"id"`
	AuthorWalletAddress string `json:"author_wallet_address"`
	Timestamp           string `json:"timestamp"`
}

type Like struct {
	PostID            string `json:"post_id"`
	UserWalletAddress string `json:"user_wallet_address"`
	Timestamp         string `json:"timestamp"`
}

type Repost struct {
	OriginalPostID        string `json:"original_post_id"`
	ReposterWalletAddress string `json:"reposter_wallet_address"`
	Timestamp             string `json:"timestamp"`
}

type GroupMessage struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	ChatID    string `json:"chatId"`
}

func (PostCreate) Kind() Kind   { return KindPostCreate }
func (PostDelete) Kind() Kind   { return KindPostDelete }
func (Like) Kind() Kind         { return KindLike }
func (Repost) Kind() Kind       { return KindRepost }
func (GroupMessage) Kind() Kind { return KindGroupMessage }

func (a PostCreate) Canonical() string {
	return canonicalObject("content", a.Content, "timestamp", a.Timestamp)
}

func (a PostDelete) Canonical() string {
	return canonicalObject("id", a.ID, "author_wallet_address", a.AuthorWalletAddress, "timestamp", a.Timestamp)
}

func (a Like) Canonical() string {
	return canonicalObject("post_id", a.PostID, "user_wallet_address", a.UserWalletAddress, "timestamp", a.Timestamp)
}

func (a Repost) Canonical() string {
	return canonicalObject("original_post_id", a.OriginalPostID, "reposter_wallet_address", a.ReposterWalletAddress, "timestamp", a.Timestamp)
}

func (a GroupMessage) Canonical() string {
	return canonicalObject("content", a.Content, "timestamp", a.Timestamp, "chatId", a.ChatID)
}

func (PostCreate) BoundWallet() string   { return "" }
func (a PostDelete) BoundWallet() string { return a.AuthorWalletAddress }
func (a Like) BoundWallet() string       { return a.UserWalletAddress }
func (a Repost) BoundWallet() string     { return a.ReposterWalletAddress }
func (GroupMessage) BoundWallet() string { return "" }

func (a PostCreate) validate() error {
	return requireFields("timestamp", a.Timestamp)
}

func (a PostDelete) validate() error {
	return requireFields("id", a.ID, "author_wallet_address", a.AuthorWalletAddress, "timestamp", a.Timestamp)
}

func (a Like) validate() error {
	return requireFields("post_id", a.PostID, "user_wallet_address", a.UserWalletAddress, "timestamp", a.Timestamp)
}

func (a Repost) validate() error {
	return requireFields("original_post_id", a.OriginalPostID, "reposter_wallet_address", a.ReposterWalletAddress, "timestamp", a.Timestamp)
}

func (a GroupMessage) validate() error {
	return requireFields("timestamp", a.Timestamp, "chatId", a.ChatID)
}

// Validate checks that the fields the canonical form depends on are present.
func Validate(a Action) error {
	if a == nil {
		return ErrInvalidAction
	}
	return a.validate()
}

// requireFields takes alternating name/value pairs. Timestamps are opaque:
// they are signed as sent and never checked for freshness.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidAction, pairs[i])
		}
	}
	return nil
}

func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(raw)); k {
	case KindPostCreate, KindPostDelete, KindLike, KindRepost, KindGroupMessage:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// DecodeAction builds the variant for kind from its JSON object. Unknown
// fields are rejected so a client cannot smuggle data outside the signature.
func DecodeAction(kind Kind, raw json.RawMessage) (Action, error) {
	var (
		action Action
		err    error
	)
	switch kind {
	case KindPostCreate:
		var a PostCreate
		err = decodeStrict(raw, &a)
		action = a
	case KindPostDelete:
		var a PostDelete
		err = decodeStrict(raw, &a)
		action = a
	case KindLike:
		var a Like
		err = decodeStrict(raw, &a)
		action = a
	case KindRepost:
		var a Repost
		err = decodeStrict(raw, &a)
		action = a
	case KindGroupMessage:
		var a GroupMessage
		err = decodeStrict(raw, &a)
		action = a
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if err := action.validate(); err != nil {
		return nil, err
	}
	return action, nil
}

func decodeStrict(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
