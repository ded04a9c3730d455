package models

import "time"

// Identity is the public half of a user: the wallet that signs and the box key peers encrypt to.
type Identity struct {
	WalletAddress       string `json:"wallet_address"`
	EncryptionPublicKey string `json:"encryption_public_key"`
}

// EncryptedEnvelope is the transport form of a boxed message. Both fields are standard base64.
type EncryptedEnvelope struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

// DirectMessage is a one-to-one message record as it travels between client and server.
// Content is only set when IsEncrypted is false.
type DirectMessage struct {
	ID                     string             `json:"id,omitempty"`
	ConversationID         string             `json:"conversation_id,omitempty"`
	SenderWalletAddress    string             `json:"sender_wallet_address"`
	RecipientWalletAddress string             `json:"recipient_wallet_address"`
	Content                string             `json:"content,omitempty"`
	IsEncrypted            bool               `json:"is_encrypted"`
	Envelope               *EncryptedEnvelope `json:"envelope,omitempty"`
	Timestamp              string             `json:"timestamp"`
}

// SignedAction carries a detached wallet signature over CanonicalMessage.
type SignedAction struct {
	CanonicalMessage string `json:"canonical_message"`
	Signature        string `json:"signature"`
	SignerAddress    string `json:"signer_address"`
}

// GateRuleRecord is the persisted shape of a community admission rule.
type GateRuleRecord struct {
	GateType    string `json:"gate_type"`
	MintAddress string `json:"mint_address,omitempty"`
	MinBalance  string `json:"min_balance,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
}

// RegistryEntry is one published encryption key.
type RegistryEntry struct {
	WalletAddress       string    `json:"wallet_address"`
	EncryptionPublicKey string    `json:"encryption_public_key"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PublishResult reports what a registry publish changed.
type PublishResult struct {
	Created   bool `json:"created"`
	Rotated   bool `json:"rotated"`
	Unchanged bool `json:"unchanged"`
}

type GateFailure struct {
	Index    int    `json:"index"`
	RuleType string `json:"rule_type"`
	Reason   string `json:"reason"`
}

// GateDecision is the admission outcome. RuleType and Reason name the first failing rule.
type GateDecision struct {
	Admitted bool          `json:"admitted"`
	RuleType string        `json:"rule_type,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Failures []GateFailure `json:"failures,omitempty"`
}

// ActionVerdict is returned for a signed action whose signature checked out.
type ActionVerdict struct {
	Valid            bool   `json:"valid"`
	Kind             string `json:"kind"`
	SignerAddress    string `json:"signer_address"`
	CanonicalMessage string `json:"canonical_message"`
}

// AdmissionResult combines signature verification with the community gate.
type AdmissionResult struct {
	Verdict  ActionVerdict `json:"verdict"`
	Decision GateDecision  `json:"decision"`
}

type HealthStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	RegistryReady bool   `json:"registry_ready"`
	ChainReady    bool   `json:"chain_ready"`
}
