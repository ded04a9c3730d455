package daemon

import (
	"fmt"
	"os"
	"strings"

	"sagachat/go-backend/internal/config"
)

const DefaultDataDir = ".saga"

// ResolveStorage creates the data dir with owner-only permissions and opens
// the storage bundle inside it.
func ResolveStorage(cfg config.Config) (config.Config, StorageBundle, error) {
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return config.Config{}, StorageBundle{}, fmt.Errorf("create data dir: %w", err)
	}
	bundle, err := BuildStorageBundle(cfg)
	if err != nil {
		return config.Config{}, StorageBundle{}, err
	}
	return cfg, bundle, nil
}
