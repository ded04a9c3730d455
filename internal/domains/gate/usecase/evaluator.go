package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sagachat/go-backend/internal/chain"
	"sagachat/go-backend/internal/domains/contracts"
	gatemodel "sagachat/go-backend/internal/domains/gate/model"
	gatepolicy "sagachat/go-backend/internal/domains/gate/policy"
	"sagachat/go-backend/internal/platform/privacylog"
	"sagachat/go-backend/pkg/models"
)

const (
	gateComponentName = "gate"

	DefaultGenesisMintAuthority = "GT2zuHVaZQYZSyQMgJPLzvkmyztfyXg2NJunqFp4p3A4"
	DefaultGenesisGroup         = "GT22s89nU4iWFkNXj1Bw6uYhJJWDRPpShHt4Bk8f99Te"
	DefaultRuleTimeout          = 10 * time.Second
	DefaultParallelism          = 4
)

var ErrInvalidWallet = errors.New("invalid wallet address")

type Config struct {
	Genesis gatepolicy.GenesisCollection
	// GenesisProgramID is the token program whose accounts are scanned for
	// Genesis NFTs.
	GenesisProgramID string
	RuleTimeout      time.Duration
	Parallelism      int
}

func DefaultConfig() Config {
	return Config{
		Genesis: gatepolicy.GenesisCollection{
			MintAuthority: DefaultGenesisMintAuthority,
			Group:         DefaultGenesisGroup,
		},
		GenesisProgramID: chain.Token2022ProgramID,
		RuleTimeout:      DefaultRuleTimeout,
		Parallelism:      DefaultParallelism,
	}
}

// Recorder receives per-rule and per-decision outcomes. ServiceMetrics
// satisfies it.
type Recorder interface {
	RecordError(category string)
	RecordGateRule(ruleType string, passed bool)
	RecordGateDecision(admitted bool, ruleType string)
}

// Evaluator decides admission from live chain state. It never caches a
// decision and never writes.
type Evaluator struct {
	chain    contracts.ChainReader
	cfg      Config
	logger   *slog.Logger
	recorder Recorder
}

func NewEvaluator(reader contracts.ChainReader, cfg Config, logger *slog.Logger, recorder Recorder) *Evaluator {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.GenesisProgramID) == "" {
		cfg.GenesisProgramID = defaults.GenesisProgramID
	}
	if cfg.RuleTimeout <= 0 {
		cfg.RuleTimeout = defaults.RuleTimeout
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaults.Parallelism
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Evaluator{chain: reader, cfg: cfg, logger: logger, recorder: recorder}
}

type ruleOutcome struct {
	passed bool
	reason string
}

// Evaluate applies every rule (logical AND). Rules run concurrently, each
// under its own timeout; the decision names the first failing rule in
// declaration order and lists all failures. Chain errors deny the rule.
func (e *Evaluator) Evaluate(ctx context.Context, wallet string, rules []gatemodel.Rule) (models.GateDecision, error) {
	wallet = strings.TrimSpace(wallet)
	if !models.IsWalletAddress(wallet) {
		return models.GateDecision{}, ErrInvalidWallet
	}
	corr := privacylog.FingerprintID(wallet)

	outcomes := make([]ruleOutcome, len(rules))
	var g errgroup.Group
	g.SetLimit(e.cfg.Parallelism)
	for i, rule := range rules {
		g.Go(func() error {
			ruleCtx, cancel := context.WithTimeout(ctx, e.cfg.RuleTimeout)
			defer cancel()
			outcomes[i] = e.evaluateRule(ruleCtx, corr, wallet, rule)
			return nil
		})
	}
	_ = g.Wait()

	decision := models.GateDecision{Admitted: true}
	for i, out := range outcomes {
		ruleType := ruleTypeOf(rules[i])
		e.record(func(r Recorder) { r.RecordGateRule(ruleType, out.passed) })
		if out.passed {
			continue
		}
		if decision.Admitted {
			decision.Admitted = false
			decision.RuleType = ruleType
			decision.Reason = out.reason
		}
		decision.Failures = append(decision.Failures, models.GateFailure{Index: i, RuleType: ruleType, Reason: out.reason})
	}
	e.record(func(r Recorder) { r.RecordGateDecision(decision.Admitted, decision.RuleType) })
	if decision.Admitted {
		e.logInfo("gate.evaluate", corr, "gate admitted", "rules", len(rules))
	} else {
		e.logInfo("gate.evaluate", corr, "gate denied", "rules", len(rules), "rule_type", decision.RuleType, "failures", len(decision.Failures))
	}
	return decision, nil
}

// EvaluateRecords parses persisted rules and evaluates them. A record that
// does not parse is an error, not a denial.
func (e *Evaluator) EvaluateRecords(ctx context.Context, wallet string, records []models.GateRuleRecord) (models.GateDecision, error) {
	rules, err := gatemodel.ParseRules(records)
	if err != nil {
		return models.GateDecision{}, err
	}
	return e.Evaluate(ctx, wallet, rules)
}

func (e *Evaluator) evaluateRule(ctx context.Context, corr, wallet string, rule gatemodel.Rule) ruleOutcome {
	if rule == nil {
		return ruleOutcome{reason: gatepolicy.ReasonInvalidRule}
	}
	if e.chain == nil {
		return ruleOutcome{reason: gatepolicy.ReasonChainUnavailable}
	}
	var (
		out ruleOutcome
		err error
	)
	switch r := rule.(type) {
	case gatemodel.GenesisRule:
		out, err = e.evaluateGenesis(ctx, wallet)
	case gatemodel.TokenRule:
		out, err = e.evaluateHolding(ctx, wallet, r.Mint, r.MinBalance, gatepolicy.ReasonInsufficientBalance)
	case gatemodel.NFTRule:
		out, err = e.evaluateHolding(ctx, wallet, r.Mint, r.MinBalance, gatepolicy.ReasonNFTNotHeld)
	default:
		return ruleOutcome{reason: fmt.Sprintf("unsupported rule %T", rule)}
	}
	if err != nil {
		e.recordErrorWithContext(contracts.ErrorCategoryNetwork, err, "gate.rule", corr, "rule_type", string(rule.Type()))
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ruleOutcome{reason: gatepolicy.ReasonTimeout}
		}
		return ruleOutcome{reason: gatepolicy.ReasonChainUnavailable}
	}
	return out
}

func ruleTypeOf(rule gatemodel.Rule) string {
	if rule == nil {
		return "INVALID"
	}
	return string(rule.Type())
}

func (e *Evaluator) evaluateHolding(ctx context.Context, wallet, mint, minBalance, denyReason string) (ruleOutcome, error) {
	accounts, err := e.chain.TokenAccountsByOwner(ctx, wallet, chain.AccountFilter{Mint: mint})
	if err != nil {
		return ruleOutcome{}, err
	}
	total, err := gatepolicy.SumHoldings(accounts, mint)
	if err != nil {
		return ruleOutcome{}, fmt.Errorf("%w: %v", chain.ErrInvalidResponse, err)
	}
	ok, err := gatepolicy.MeetsMinimum(total, minBalance)
	if err != nil {
		return ruleOutcome{}, err
	}
	if !ok {
		return ruleOutcome{reason: denyReason}, nil
	}
	return ruleOutcome{passed: true}, nil
}

// evaluateGenesis passes when one held mint satisfies both collection
// predicates. A failed lookup on one mint does not stop the scan, but if no
// mint passes and any lookup failed the rule reports the failure.
func (e *Evaluator) evaluateGenesis(ctx context.Context, wallet string) (ruleOutcome, error) {
	accounts, err := e.chain.TokenAccountsByOwner(ctx, wallet, chain.AccountFilter{ProgramID: e.cfg.GenesisProgramID})
	if err != nil {
		return ruleOutcome{}, err
	}
	var lookupErr error
	for _, mint := range gatepolicy.GenesisCandidates(accounts) {
		info, err := e.chain.MintInfo(ctx, mint)
		if err != nil {
			if ctx.Err() != nil {
				return ruleOutcome{}, ctx.Err()
			}
			if !errors.Is(err, chain.ErrAccountNotFound) && lookupErr == nil {
				lookupErr = err
			}
			continue
		}
		if gatepolicy.IsGenesisMint(info, e.cfg.Genesis) {
			return ruleOutcome{passed: true}, nil
		}
	}
	if lookupErr != nil {
		return ruleOutcome{}, lookupErr
	}
	return ruleOutcome{reason: gatepolicy.ReasonGenesisNotHeld}, nil
}

func (e *Evaluator) record(fn func(Recorder)) {
	if e.recorder != nil {
		fn(e.recorder)
	}
}

func (e *Evaluator) logInfo(operation, correlationID, message string, attrs ...any) {
	base := []any{
		"component", gateComponentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
	e.logger.Info(message, append(base, attrs...)...)
}

func (e *Evaluator) recordErrorWithContext(category string, err error, operation, correlationID string, attrs ...any) {
	if err == nil {
		return
	}
	e.record(func(r Recorder) { r.RecordError(category) })
	base := []any{
		"component", gateComponentName,
		"operation", strings.TrimSpace(operation),
		"category", strings.TrimSpace(category),
		"correlation_id", strings.TrimSpace(correlationID),
		"error", err.Error(),
	}
	e.logger.Warn("gate rule failed closed", append(base, attrs...)...)
}
