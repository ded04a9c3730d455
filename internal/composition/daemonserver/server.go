package daemonserver

import (
	"log/slog"

	"sagachat/go-backend/internal/adapters/rpc"
	"sagachat/go-backend/internal/composition/daemon/servicefactory"
	"sagachat/go-backend/internal/config"
	"sagachat/go-backend/internal/metrics"
)

// NewRPCServerWithOptions wires daemon service and RPC transport. The returned
// closer must run after the server stops.
func NewRPCServerWithOptions(cfg config.Config, logger *slog.Logger, version string) (*rpc.Server, func() error, error) {
	m := metrics.New()
	svc, closer, err := servicefactory.BuildDaemonService(cfg, logger, m, version)
	if err != nil {
		return nil, nil, err
	}
	srv, err := rpc.NewServer(rpc.Options{
		Addr:            cfg.RPC.Addr,
		Token:           cfg.RPC.Token,
		RequireToken:    !isLoopbackAddr(cfg.RPC.Addr),
		RateLimitRPS:    cfg.RPC.RateLimitRPS,
		RateLimitBurst:  cfg.RPC.RateLimitBurst,
		ShutdownTimeout: cfg.RPC.ShutdownTimeout,
		Logger:          logger,
		Metrics:         m,
	}, svc)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return srv, closer, nil
}
