package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sagachat/go-backend/internal/composition/daemonserver"
	"sagachat/go-backend/internal/config"
	"sagachat/go-backend/internal/platform/privacylog"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	rpcAddr := flag.String("rpc-addr", "", "JSON-RPC listen address (overrides config)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Saga-RPC-Token (optional)")
	dataDir := flag.String("data-dir", "", "Directory for daemon local data (optional)")
	solanaURL := flag.String("solana-rpc", "", "Solana JSON-RPC endpoint (overrides config)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("saga-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg, err := config.LoadFromPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "saga-daemon: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, *rpcAddr, *rpcToken, *dataDir, *solanaURL)

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, closer, err := daemonserver.NewRPCServerWithOptions(cfg, logger, version)
	if err != nil {
		logger.Error("saga-daemon failed to initialize", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := closer(); err != nil {
			logger.Error("saga-daemon storage close failed", "error", err.Error())
		}
	}()

	logger.Info("saga-daemon starting", "version", version, "commit", commit)
	if err := srv.Run(ctx); err != nil {
		logger.Error("saga-daemon failed", "error", err.Error())
		return
	}
	logger.Info("saga-daemon stopped")
}

func applyFlags(cfg *config.Config, rpcAddr, rpcToken, dataDir, solanaURL string) {
	if v := strings.TrimSpace(rpcAddr); v != "" {
		cfg.RPC.Addr = v
	}
	if v := strings.TrimSpace(rpcToken); v != "" {
		cfg.RPC.Token = v
	}
	if v := strings.TrimSpace(dataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(solanaURL); v != "" {
		cfg.Chain.URL = v
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(privacylog.WrapHandler(handler))
}
