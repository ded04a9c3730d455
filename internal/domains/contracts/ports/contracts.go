package ports

import (
	"context"
	"encoding/json"

	"sagachat/go-backend/pkg/models"
)

// RegistryAPI is the transport-neutral public-key registry contract.
type RegistryAPI interface {
	LookupEncryptionKey(ctx context.Context, walletAddress string) (models.RegistryEntry, error)
	PublishEncryptionKey(ctx context.Context, walletAddress, encryptionPublicKey, signature string) (models.PublishResult, error)
}

// ActionsAPI verifies signed social actions. Payload is the kind-specific
// action object; the canonical message is rebuilt from it server-side.
type ActionsAPI interface {
	VerifyAction(ctx context.Context, kind string, payload json.RawMessage, signed models.SignedAction) (models.ActionVerdict, error)
	AdmitAction(ctx context.Context, kind string, payload json.RawMessage, signed models.SignedAction, rules []models.GateRuleRecord) (models.AdmissionResult, error)
}

// GateAPI evaluates community admission rules.
type GateAPI interface {
	EvaluateGate(ctx context.Context, walletAddress string, rules []models.GateRuleRecord) (models.GateDecision, error)
	ParseGateRules(rules []models.GateRuleRecord) ([]models.GateRuleRecord, error)
}

// CoreAPI aggregates the domain contracts.
type CoreAPI interface {
	RegistryAPI
	ActionsAPI
	GateAPI
}

// DaemonService is what the RPC server drives.
type DaemonService interface {
	RegistryAPI
	ActionsAPI
	GateAPI
	Health(ctx context.Context) models.HealthStatus
}

type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}
