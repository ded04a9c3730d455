package commands

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"sagachat/go-backend/internal/config"
	"sagachat/go-backend/internal/platform/privacylog"
)

type cliState struct {
	configPath  string
	dataDir     string
	registryURL string
	token       string
	solanaURL   string
	verbose     bool

	cfg    config.Config
	logger *slog.Logger
}

func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the sagactl command tree with fresh flag state.
func NewRootCommand() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:           "sagactl",
		Short:         "Wallet-rooted encryption, signing and gating tools for Saga Chat",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&st.dataDir, "data-dir", "", "directory for the seed vault, dev wallet and local registry")
	root.PersistentFlags().StringVar(&st.registryURL, "registry", "", "daemon base URL for the key registry (default: local registry file)")
	root.PersistentFlags().StringVar(&st.token, "token", "", "daemon RPC token used to publish keys")
	root.PersistentFlags().StringVar(&st.solanaURL, "solana-rpc", "", "Solana JSON-RPC endpoint for gate checks")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		keygenCmd(st),
		bootstrapCmd(st),
		backupCmd(st),
		restoreCmd(st),
		encryptCmd(st),
		decryptCmd(st),
		signCmd(st),
		verifyCmd(st),
		gateCmd(st),
	)
	return root
}

func (st *cliState) load(cmd *cobra.Command) error {
	cfg, err := config.LoadFromPath(st.configPath)
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(st.dataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(st.registryURL); v != "" {
		cfg.Registry.URL = v
	}
	if v := strings.TrimSpace(st.token); v != "" {
		cfg.RPC.Token = v
	}
	if v := strings.TrimSpace(st.solanaURL); v != "" {
		cfg.Chain.URL = v
	}
	st.cfg = cfg

	level := slog.LevelWarn
	if st.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	st.logger = slog.New(privacylog.WrapHandler(handler))
	return nil
}
