package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadFromPathMergesYAMLOverDefaults(t *testing.T) {
	path := writeConfig(t, `
dataDir: /var/lib/saga
rpc:
  addr: 0.0.0.0:9000
chain:
  url: http://localhost:8899
  timeout: 3s
  mintCacheTtl: 1m
gate:
  parallelism: 8
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RPC.Addr != "0.0.0.0:9000" || cfg.Chain.URL != "http://localhost:8899" {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.Chain.Timeout != 3*time.Second || cfg.Chain.MintCacheTTL != time.Minute {
		t.Fatalf("durations not parsed: %+v", cfg.Chain)
	}
	if cfg.Gate.Parallelism != 8 || cfg.Gate.GenesisGroup != DefaultGenesisGroup {
		t.Fatalf("unexpected gate config: %+v", cfg.Gate)
	}
	if cfg.RPC.RateLimitBurst != 40 {
		t.Fatalf("unset keys must keep defaults, got burst=%d", cfg.RPC.RateLimitBurst)
	}
	if got := cfg.RegistryDBPath(); got != filepath.Join("/var/lib/saga", DefaultRegistryDBName) {
		t.Fatalf("unexpected registry path %q", got)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "rpc:\n  addr: 0.0.0.0:9000\n")
	t.Setenv("SAGA_RPC_ADDR", "127.0.0.1:7000")
	t.Setenv("SAGA_RPC_TOKEN", "s3cret")
	t.Setenv("SAGA_GATE_PARALLELISM", "1000")
	t.Setenv("SAGA_CHAIN_TIMEOUT", "not-a-duration")
	t.Setenv("SAGA_GENESIS_GROUP", "G1")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RPC.Addr != "127.0.0.1:7000" || cfg.RPC.Token != "s3cret" {
		t.Fatalf("env overrides not applied: %+v", cfg.RPC)
	}
	if cfg.Gate.Parallelism != 32 {
		t.Fatalf("expected parallelism clamped to 32, got %d", cfg.Gate.Parallelism)
	}
	if cfg.Chain.Timeout != 10*time.Second {
		t.Fatalf("invalid duration must fall back, got %s", cfg.Chain.Timeout)
	}
	if cfg.Gate.GenesisGroup != "G1" {
		t.Fatalf("unexpected genesis group %q", cfg.Gate.GenesisGroup)
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("explicit missing path must fail")
	}
	if _, err := LoadFromPath(writeConfig(t, "rpc: [unclosed")); err == nil {
		t.Fatal("invalid yaml must fail")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadFromPath("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RPC.Addr != DefaultRPCAddr || cfg.Chain.URL != DefaultSolanaRPCURL {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
