package daemon

import (
	"sagachat/go-backend/internal/config"
	"sagachat/go-backend/internal/identity"
	"sagachat/go-backend/internal/registry"
)

// StorageBundle is the on-disk state under one data dir.
type StorageBundle struct {
	DataDir   string
	Registry  *registry.BoltStore
	SeedVault *identity.SeedVault
	VaultPath string
}

func BuildStorageBundle(cfg config.Config) (StorageBundle, error) {
	store, err := registry.OpenBoltStore(cfg.RegistryDBPath())
	if err != nil {
		return StorageBundle{}, err
	}
	return StorageBundle{
		DataDir:   cfg.DataDir,
		Registry:  store,
		SeedVault: identity.NewSeedVault(cfg.SeedVaultPath()),
		VaultPath: cfg.SeedVaultPath(),
	}, nil
}

func (b StorageBundle) Close() error {
	if b.Registry == nil {
		return nil
	}
	return b.Registry.Close()
}

// VaultPassphrase resolves the seed vault secret for this data dir.
func (b StorageBundle) VaultPassphrase() (string, error) {
	return VaultPassphrase(b.DataDir, b.VaultPath)
}
