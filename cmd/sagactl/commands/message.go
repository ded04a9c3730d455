package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	messagingusecase "sagachat/go-backend/internal/domains/messaging/usecase"
	"sagachat/go-backend/pkg/models"
)

func encryptCmd(st *cliState) *cobra.Command {
	var requireEncryption bool
	cmd := &cobra.Command{
		Use:   "encrypt <recipient-wallet> <message>",
		Short: "Compose a direct message, boxed to the recipient's published key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := st.unlockSession()
			if err != nil {
				return err
			}
			defer session.Close()
			keys, closeKeys, err := st.openRegistry(nil)
			if err != nil {
				return err
			}
			defer closeKeys()

			svc := &messagingusecase.Service{Session: session, Keys: keys, RequireEncryption: requireEncryption}
			msg, err := svc.Compose(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !msg.IsEncrypted {
				st.logger.Warn("recipient has no published key; sending plaintext", "component", "messaging", "recipient_wallet_address", msg.RecipientWalletAddress)
			}
			return writeJSON(cmd, msg)
		},
	}
	cmd.Flags().BoolVar(&requireEncryption, "require-encryption", false, "fail instead of falling back to plaintext")
	return cmd
}

func decryptCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <message.json|->",
		Short: "Open a direct message record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readArgOrStdin(cmd, args[0])
			if err != nil {
				return err
			}
			var msg models.DirectMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				return fmt.Errorf("decode message: %w", err)
			}
			keys, closeKeys, err := st.openRegistry(nil)
			if err != nil {
				return err
			}
			defer closeKeys()

			svc := &messagingusecase.Service{Keys: keys}
			if session, err := st.unlockSession(); err == nil {
				defer session.Close()
				svc.Session = session
			} else {
				st.logger.Warn("no identity session; encrypted messages stay locked", "component", "messaging", "error", err.Error())
			}
			text, _ := svc.Open(cmd.Context(), msg)
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
