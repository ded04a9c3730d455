package registry

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sagachat/go-backend/internal/crypto"
	"sagachat/go-backend/pkg/models"
)

const maxResponseBytes = 64 << 10

var (
	ErrRegistryUnavailable = errors.New("registry is unavailable")
	ErrSignerRequired      = errors.New("publishing to a remote registry requires a wallet signer")
	ErrPublishForbidden    = errors.New("registry rejected the wallet signature")
)

// PublishRequest is the PUT /v1/keys/{wallet} body. Signature is the
// wallet's detached Ed25519 signature (standard base64) over
// RegistrationMessage.
type PublishRequest struct {
	EncryptionPublicKey string `json:"encryption_public_key"`
	Signature           string `json:"signature"`
}

// MessageSigner signs registration messages with the publishing wallet's
// key. hwsigner.Signer satisfies it.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// HTTPClient talks to a daemon's REST registry routes.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	signer  MessageSigner
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithSigner sets the wallet that authorizes Publish calls.
func (c *HTTPClient) WithSigner(signer MessageSigner) *HTTPClient {
	c.signer = signer
	return c
}

func (c *HTTPClient) Lookup(ctx context.Context, walletAddress string) (models.RegistryEntry, bool, error) {
	walletAddress, err := normalizeLookup(walletAddress)
	if err != nil {
		return models.RegistryEntry{}, false, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, walletAddress, nil)
	if err != nil {
		return models.RegistryEntry{}, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.RegistryEntry{}, false, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return models.RegistryEntry{}, false, nil
	default:
		return models.RegistryEntry{}, false, statusError(resp)
	}
	var entry models.RegistryEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&entry); err != nil {
		return models.RegistryEntry{}, false, fmt.Errorf("%w: decode entry: %v", ErrRegistryUnavailable, err)
	}
	return entry, true, nil
}

func (c *HTTPClient) Publish(ctx context.Context, walletAddress string, key [32]byte) (models.PublishResult, error) {
	walletAddress, err := validatePublish(walletAddress, key)
	if err != nil {
		return models.PublishResult{}, err
	}
	if c.signer == nil {
		return models.PublishResult{}, ErrSignerRequired
	}
	encoded := crypto.EncodePublicKey(key)
	sig, err := c.signer.SignMessage(ctx, []byte(RegistrationMessage(walletAddress, encoded)))
	if err != nil {
		return models.PublishResult{}, err
	}
	body, err := json.Marshal(PublishRequest{
		EncryptionPublicKey: encoded,
		Signature:           base64.StdEncoding.EncodeToString(sig),
	})
	if err != nil {
		return models.PublishResult{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPut, walletAddress, bytes.NewReader(body))
	if err != nil {
		return models.PublishResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return models.PublishResult{}, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden {
		return models.PublishResult{}, ErrPublishForbidden
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return models.PublishResult{}, statusError(resp)
	}
	var res models.PublishResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&res); err != nil {
		return models.PublishResult{}, fmt.Errorf("%w: decode result: %v", ErrRegistryUnavailable, err)
	}
	return res, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, walletAddress string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/v1/keys/"+url.PathEscape(walletAddress), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: status %d: %s", ErrRegistryUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
}
