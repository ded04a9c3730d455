package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sagachat/go-backend/internal/composition/daemon"
	"sagachat/go-backend/internal/hwsigner"
	"sagachat/go-backend/internal/identity"
	"sagachat/go-backend/internal/registry"
	"sagachat/go-backend/internal/securestore"
)

const devWalletFileName = "wallet.key"

var errNoDevWallet = errors.New("no dev wallet found; run `sagactl keygen` first")

// openRegistry returns the remote daemon registry when a URL is configured,
// otherwise the local bbolt file. signer authorizes remote publishes and may
// be nil for lookups.
func (st *cliState) openRegistry(signer registry.MessageSigner) (registry.Store, func() error, error) {
	if url := strings.TrimSpace(st.cfg.Registry.URL); url != "" {
		client := registry.NewHTTPClient(url, st.cfg.RPC.Token, st.cfg.Registry.Timeout)
		if signer != nil {
			client.WithSigner(signer)
		}
		return client, func() error { return nil }, nil
	}
	cfg, bundle, err := daemon.ResolveStorage(st.cfg)
	if err != nil {
		return nil, nil, err
	}
	st.cfg = cfg
	return bundle.Registry, bundle.Close, nil
}

func (st *cliState) vaultPassphrase() (string, error) {
	if err := os.MkdirAll(st.cfg.DataDir, 0o700); err != nil {
		return "", err
	}
	return daemon.VaultPassphrase(st.cfg.DataDir, st.cfg.SeedVaultPath())
}

func (st *cliState) devWalletPath() string {
	return filepath.Join(st.cfg.DataDir, devWalletFileName)
}

// loadWallet opens the software stand-in for the hardware wallet.
func (st *cliState) loadWallet() (*hwsigner.LocalSigner, error) {
	pass, err := st.vaultPassphrase()
	if err != nil {
		return nil, err
	}
	seed, err := securestore.ReadDecryptedFile(st.devWalletPath(), pass)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNoDevWallet
	}
	if err != nil {
		return nil, fmt.Errorf("open dev wallet: %w", err)
	}
	defer securestore.Wipe(seed)
	return hwsigner.NewLocalSigner(seed)
}

// unlockSession loads the encryption identity from the seed vault.
func (st *cliState) unlockSession() (*identity.Session, error) {
	vault := identity.NewSeedVault(st.cfg.SeedVaultPath())
	if !vault.Exists() {
		return nil, fmt.Errorf("%w: run `sagactl bootstrap` first", identity.ErrNoSession)
	}
	pass, err := st.vaultPassphrase()
	if err != nil {
		return nil, err
	}
	session := identity.NewSession()
	if _, err := vault.Unlock(session, pass); err != nil {
		return nil, err
	}
	return session, nil
}

func (st *cliState) saveSession(session *identity.Session) error {
	pass, err := st.vaultPassphrase()
	if err != nil {
		return err
	}
	return identity.NewSeedVault(st.cfg.SeedVaultPath()).Save(session, pass)
}

// readArgOrStdin reads the named file, or stdin for "-".
func readArgOrStdin(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1<<20))
	}
	return os.ReadFile(arg)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
