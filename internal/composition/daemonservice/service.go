package daemonservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	actionmodel "sagachat/go-backend/internal/domains/actions/model"
	actionusecase "sagachat/go-backend/internal/domains/actions/usecase"
	"sagachat/go-backend/internal/domains/contracts"
	gatemodel "sagachat/go-backend/internal/domains/gate/model"
	gateusecase "sagachat/go-backend/internal/domains/gate/usecase"
	keysusecase "sagachat/go-backend/internal/domains/keys/usecase"
	"sagachat/go-backend/internal/metrics"
	"sagachat/go-backend/internal/platform/privacylog"
	"sagachat/go-backend/pkg/models"
)

type Options struct {
	Registry contracts.KeyRegistry
	Chain    contracts.ChainReader
	Gate     gateusecase.Config
	Logger   *slog.Logger
	Metrics  *metrics.ServiceMetrics
	Version  string
}

type Service struct {
	logger   *slog.Logger
	metrics  *metrics.ServiceMetrics
	version  string
	registry contracts.KeyRegistry
	chain    contracts.ChainReader
	keys     *keysusecase.Service
	gate     *gateusecase.Evaluator
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		logger:   logger,
		metrics:  opts.Metrics,
		version:  opts.Version,
		registry: opts.Registry,
		chain:    opts.Chain,
	}
	s.keys = &keysusecase.Service{Store: opts.Registry, RecordError: s.recordError}
	s.gate = gateusecase.NewEvaluator(opts.Chain, opts.Gate, logger, opts.Metrics)
	return s
}

func (s *Service) LookupEncryptionKey(ctx context.Context, walletAddress string) (entry models.RegistryEntry, err error) {
	defer s.trackOperation("registry.get", &err)()
	if s.registry == nil {
		return models.RegistryEntry{}, errRegistryNotConfigured
	}
	return s.keys.LookupEncryptionKey(ctx, walletAddress)
}

func (s *Service) PublishEncryptionKey(ctx context.Context, walletAddress, encryptionPublicKey, signature string) (result models.PublishResult, err error) {
	defer s.trackOperation("registry.put", &err)()
	if s.registry == nil {
		return models.PublishResult{}, errRegistryNotConfigured
	}
	result, err = s.keys.PublishEncryptionKey(ctx, walletAddress, encryptionPublicKey, signature)
	if err != nil {
		return models.PublishResult{}, err
	}
	corr := privacylog.FingerprintID(walletAddress)
	if result.Rotated {
		s.logWarn("registry.put", corr, "encryption key rotated")
	} else if result.Created {
		s.logInfo("registry.put", corr, "encryption key published")
	}
	return result, nil
}

// VerifyAction rebuilds the canonical message from payload and checks the
// detached signature against it.
func (s *Service) VerifyAction(ctx context.Context, kind string, payload json.RawMessage, signed models.SignedAction) (verdict models.ActionVerdict, err error) {
	defer s.trackOperation("action.verify", &err)()
	corr := actionCorrelationID(kind, signed.SignerAddress)
	if err := ctx.Err(); err != nil {
		return models.ActionVerdict{}, err
	}
	parsedKind, err := actionmodel.ParseKind(kind)
	if err != nil {
		return models.ActionVerdict{}, err
	}
	action, err := actionmodel.DecodeAction(parsedKind, payload)
	if err != nil {
		return models.ActionVerdict{}, err
	}
	verdict, err = actionusecase.Verify(action, signed)
	s.metrics.RecordVerification(string(parsedKind), err == nil)
	if err != nil {
		if errors.Is(err, actionusecase.ErrInvalidSignature) {
			s.logWarn("action.verify", corr, "signed action rejected", "reason", err.Error())
		}
		return models.ActionVerdict{}, err
	}
	s.logInfo("action.verify", corr, "signed action verified")
	return verdict, nil
}

// AdmitAction verifies the action and then gates its signer. An invalid
// signature never reaches the gate.
func (s *Service) AdmitAction(ctx context.Context, kind string, payload json.RawMessage, signed models.SignedAction, rules []models.GateRuleRecord) (models.AdmissionResult, error) {
	verdict, err := s.VerifyAction(ctx, kind, payload, signed)
	if err != nil {
		return models.AdmissionResult{}, err
	}
	decision, err := s.EvaluateGate(ctx, verdict.SignerAddress, rules)
	if err != nil {
		return models.AdmissionResult{}, err
	}
	return models.AdmissionResult{Verdict: verdict, Decision: decision}, nil
}

func (s *Service) EvaluateGate(ctx context.Context, walletAddress string, rules []models.GateRuleRecord) (decision models.GateDecision, err error) {
	defer s.trackOperation("gate.evaluate", &err)()
	return s.gate.EvaluateRecords(ctx, walletAddress, rules)
}

// ParseGateRules validates records and returns them normalized.
func (s *Service) ParseGateRules(rules []models.GateRuleRecord) ([]models.GateRuleRecord, error) {
	parsed, err := gatemodel.ParseRules(rules)
	if err != nil {
		return nil, err
	}
	return gatemodel.Records(parsed), nil
}

func (s *Service) Health(_ context.Context) models.HealthStatus {
	status := models.HealthStatus{
		Status:        "ok",
		Version:       s.version,
		RegistryReady: s.registry != nil,
		ChainReady:    s.chain != nil,
	}
	if !status.RegistryReady || !status.ChainReady {
		status.Status = "degraded"
	}
	return status
}

func (s *Service) recordError(category string, err error) {
	s.recordErrorWithContext(category, err, "service.error", "n/a")
}

func (s *Service) trackOperation(operation string, errRef *error) func() {
	started := time.Now()
	return func() {
		s.metrics.RecordOp(operation, started)
		if errRef != nil && *errRef != nil {
			s.metrics.RecordOpError(operation)
		}
	}
}

var errRegistryNotConfigured = errors.New("key registry is not configured")
