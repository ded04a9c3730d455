package servicefactory

import (
	"log/slog"

	"sagachat/go-backend/internal/chain"
	"sagachat/go-backend/internal/composition/daemon"
	"sagachat/go-backend/internal/composition/daemonservice"
	"sagachat/go-backend/internal/config"
	"sagachat/go-backend/internal/domains/contracts"
	gatepolicy "sagachat/go-backend/internal/domains/gate/policy"
	gateusecase "sagachat/go-backend/internal/domains/gate/usecase"
	"sagachat/go-backend/internal/metrics"
)

// BuildDaemonService composes the daemon service from config. The returned
// closer releases the registry database and the mint cache.
func BuildDaemonService(cfg config.Config, logger *slog.Logger, m *metrics.ServiceMetrics, version string) (contracts.DaemonService, func() error, error) {
	_, bundle, err := daemon.ResolveStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	reader, closeChain := NewChainReader(cfg.Chain)
	svc := daemonservice.NewService(daemonservice.Options{
		Registry: bundle.Registry,
		Chain:    reader,
		Gate:     GateConfig(cfg.Gate),
		Logger:   logger,
		Metrics:  m,
		Version:  version,
	})
	closer := func() error {
		closeChain()
		return bundle.Close()
	}
	return svc, closer, nil
}

// NewChainReader builds the Solana client, fronted by the mint cache when
// MintCacheTTL is positive.
func NewChainReader(cfg config.ChainConfig) (contracts.ChainReader, func()) {
	client := chain.NewClient(cfg.URL, chain.Options{
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
	if cfg.MintCacheTTL <= 0 {
		return client, func() {}
	}
	cached := chain.NewCachedMintReader(client, cfg.MintCacheTTL)
	return cached, cached.Close
}

func GateConfig(cfg config.GateConfig) gateusecase.Config {
	return gateusecase.Config{
		Genesis: gatepolicy.GenesisCollection{
			MintAuthority: cfg.GenesisMintAuthority,
			Group:         cfg.GenesisGroup,
		},
		GenesisProgramID: cfg.GenesisProgramID,
		RuleTimeout:      cfg.RuleTimeout,
		Parallelism:      cfg.Parallelism,
	}
}
