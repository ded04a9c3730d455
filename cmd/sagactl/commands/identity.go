package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sagachat/go-backend/internal/identity"
	"sagachat/go-backend/pkg/models"
)

func bootstrapCmd(st *cliState) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Sign the sign-in challenge, derive the encryption key and publish it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := st.loadWallet()
			if err != nil {
				return err
			}
			var publisher identity.KeyPublisher
			if !offline {
				store, closeStore, err := st.openRegistry(wallet)
				if err != nil {
					return err
				}
				defer closeStore()
				publisher = store
			}
			session := identity.NewSession()
			defer session.Close()
			id, result, err := identity.NewBootstrapper(wallet, publisher, session, st.logger).Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.saveSession(session); err != nil {
				return err
			}
			return writeJSON(cmd, struct {
				Identity models.Identity      `json:"identity"`
				Publish  models.PublishResult `json:"publish"`
			}{id, result})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "derive the key without publishing it to the registry")
	return cmd
}

func backupCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Print the mnemonic that restores the encryption key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := st.unlockSession()
			if err != nil {
				return err
			}
			defer session.Close()
			phrase, err := session.BackupPhrase()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), phrase)
			return nil
		},
	}
}

func restoreCmd(st *cliState) *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "restore <mnemonic words...>",
		Short: "Restore the encryption key from a backup mnemonic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := identity.NewSession()
			defer session.Close()
			if err := identity.RestoreFromPhrase(session, strings.TrimSpace(wallet), strings.Join(args, " ")); err != nil {
				return err
			}
			if err := st.saveSession(session); err != nil {
				return err
			}
			id, err := session.Identity()
			if err != nil {
				return err
			}
			return writeJSON(cmd, id)
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet address the key belongs to")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}
