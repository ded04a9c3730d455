// Package config loads daemon and CLI settings: defaults, then an optional
// YAML file, then SAGA_* environment overrides. Command-line flags are
// applied last by the entrypoints.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sagachat/go-backend/internal/chain"
	gateusecase "sagachat/go-backend/internal/domains/gate/usecase"
)

const (
	DefaultRPCAddr        = "127.0.0.1:8787"
	DefaultSolanaRPCURL   = "https://api.mainnet-beta.solana.com"
	DefaultRegistryDBName = "registry.db"
	DefaultSeedVaultName  = "seed.vault"

	DefaultGenesisMintAuthority = gateusecase.DefaultGenesisMintAuthority
	DefaultGenesisGroup         = gateusecase.DefaultGenesisGroup
)

type Config struct {
	DataDir  string         `yaml:"dataDir"`
	LogLevel string         `yaml:"logLevel"`
	RPC      RPCConfig      `yaml:"rpc"`
	Chain    ChainConfig    `yaml:"chain"`
	Gate     GateConfig     `yaml:"gate"`
	Registry RegistryConfig `yaml:"registry"`
}

type RPCConfig struct {
	Addr            string        `yaml:"addr"`
	Token           string        `yaml:"token"`
	RateLimitRPS    float64       `yaml:"rateLimitRps"`
	RateLimitBurst  int           `yaml:"rateLimitBurst"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type ChainConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	// MintCacheTTL enables the mint metadata cache when positive.
	MintCacheTTL time.Duration `yaml:"mintCacheTtl"`
}

type GateConfig struct {
	GenesisMintAuthority string        `yaml:"genesisMintAuthority"`
	GenesisGroup         string        `yaml:"genesisGroup"`
	GenesisProgramID     string        `yaml:"genesisProgramId"`
	RuleTimeout          time.Duration `yaml:"ruleTimeout"`
	Parallelism          int           `yaml:"parallelism"`
}

type RegistryConfig struct {
	// DBPath is the daemon's bbolt file; relative paths resolve under DataDir.
	DBPath string `yaml:"dbPath"`
	// URL points the CLI at a remote daemon registry instead of a local file.
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		RPC: RPCConfig{
			Addr:            DefaultRPCAddr,
			RateLimitRPS:    20,
			RateLimitBurst:  40,
			ShutdownTimeout: 5 * time.Second,
		},
		Chain: ChainConfig{
			URL:               DefaultSolanaRPCURL,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 8,
			Burst:             16,
		},
		Gate: GateConfig{
			GenesisMintAuthority: DefaultGenesisMintAuthority,
			GenesisGroup:         DefaultGenesisGroup,
			GenesisProgramID:     chain.Token2022ProgramID,
			RuleTimeout:          10 * time.Second,
			Parallelism:          4,
		},
		Registry: RegistryConfig{
			DBPath:  DefaultRegistryDBName,
			Timeout: 10 * time.Second,
		},
	}
}

// LoadFromPath reads configPath when given, otherwise the first of the
// conventional locations that exists. A missing default file is not an
// error; an explicit path that cannot be read or parsed is.
func LoadFromPath(configPath string) (Config, error) {
	cfg := Default()

	configPath = strings.TrimSpace(configPath)
	candidates := []string{configPath}
	if configPath == "" {
		candidates = []string{"go-backend/configs/config.yaml", "configs/config.yaml"}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath == "" && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		break
	}

	ApplyEnvOverrides(&cfg)
	cfg.normalize()
	return cfg, nil
}

func ApplyEnvOverrides(cfg *Config) {
	if v := envString("SAGA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := envString("SAGA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := envString("SAGA_RPC_ADDR"); v != "" {
		cfg.RPC.Addr = v
	}
	if v := envString("SAGA_RPC_TOKEN"); v != "" {
		cfg.RPC.Token = v
	}
	cfg.RPC.RateLimitRPS = envFloatWithFallback("SAGA_RPC_RATE_LIMIT_RPS", cfg.RPC.RateLimitRPS)
	cfg.RPC.RateLimitBurst = envBoundedIntWithFallback("SAGA_RPC_RATE_LIMIT_BURST", cfg.RPC.RateLimitBurst, 1, 10_000)

	if v := envString("SAGA_SOLANA_RPC_URL"); v != "" {
		cfg.Chain.URL = v
	}
	cfg.Chain.Timeout = envDurationWithFallback("SAGA_CHAIN_TIMEOUT", cfg.Chain.Timeout)
	cfg.Chain.RequestsPerSecond = envFloatWithFallback("SAGA_CHAIN_RPS", cfg.Chain.RequestsPerSecond)
	cfg.Chain.MintCacheTTL = envDurationWithFallback("SAGA_MINT_CACHE_TTL", cfg.Chain.MintCacheTTL)

	if v := envString("SAGA_GENESIS_MINT_AUTHORITY"); v != "" {
		cfg.Gate.GenesisMintAuthority = v
	}
	if v := envString("SAGA_GENESIS_GROUP"); v != "" {
		cfg.Gate.GenesisGroup = v
	}
	cfg.Gate.RuleTimeout = envDurationWithFallback("SAGA_GATE_RULE_TIMEOUT", cfg.Gate.RuleTimeout)
	cfg.Gate.Parallelism = envBoundedIntWithFallback("SAGA_GATE_PARALLELISM", cfg.Gate.Parallelism, 1, 32)

	if v := envString("SAGA_REGISTRY_DB"); v != "" {
		cfg.Registry.DBPath = v
	}
	if v := envString("SAGA_REGISTRY_URL"); v != "" {
		cfg.Registry.URL = v
	}
}

func (c *Config) normalize() {
	defaults := Default()
	if strings.TrimSpace(c.RPC.Addr) == "" {
		c.RPC.Addr = defaults.RPC.Addr
	}
	if c.RPC.ShutdownTimeout <= 0 {
		c.RPC.ShutdownTimeout = defaults.RPC.ShutdownTimeout
	}
	if c.Gate.Parallelism <= 0 {
		c.Gate.Parallelism = defaults.Gate.Parallelism
	}
	if c.Gate.RuleTimeout <= 0 {
		c.Gate.RuleTimeout = defaults.Gate.RuleTimeout
	}
	if strings.TrimSpace(c.Gate.GenesisProgramID) == "" {
		c.Gate.GenesisProgramID = defaults.Gate.GenesisProgramID
	}
}

// RegistryDBPath resolves Registry.DBPath against DataDir.
func (c Config) RegistryDBPath() string {
	return c.resolve(c.Registry.DBPath)
}

func (c Config) SeedVaultPath() string {
	return c.resolve(DefaultSeedVaultName)
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.DataDir == "" {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".saga"
	}
	return filepath.Join(dir, "saga-chat")
}
