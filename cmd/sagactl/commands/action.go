package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	actionmodel "sagachat/go-backend/internal/domains/actions/model"
	actionusecase "sagachat/go-backend/internal/domains/actions/usecase"
	"sagachat/go-backend/pkg/models"
)

// signedBundle is what `sign` prints and `verify` reads back.
type signedBundle struct {
	Kind   string              `json:"kind"`
	Action json.RawMessage     `json:"action"`
	Signed models.SignedAction `json:"signed"`
}

func signCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "sign <kind> <action.json|->",
		Short: "Sign a social action with the wallet",
		Long:  "Kinds: post_create, post_delete, like, repost, group_message.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := actionmodel.ParseKind(args[0])
			if err != nil {
				return err
			}
			raw, err := readArgOrStdin(cmd, args[1])
			if err != nil {
				return err
			}
			action, err := actionmodel.DecodeAction(kind, raw)
			if err != nil {
				return err
			}
			wallet, err := st.loadWallet()
			if err != nil {
				return err
			}
			signed, err := actionusecase.NewSigner(wallet).Sign(cmd.Context(), action)
			if err != nil {
				return err
			}
			payload, err := json.Marshal(action)
			if err != nil {
				return err
			}
			return writeJSON(cmd, signedBundle{Kind: string(kind), Action: payload, Signed: signed})
		},
	}
}

func verifyCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <signed.json|->",
		Short: "Verify a signed action produced by `sign`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readArgOrStdin(cmd, args[0])
			if err != nil {
				return err
			}
			var bundle signedBundle
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return fmt.Errorf("decode signed action: %w", err)
			}
			kind, err := actionmodel.ParseKind(bundle.Kind)
			if err != nil {
				return err
			}
			action, err := actionmodel.DecodeAction(kind, bundle.Action)
			if err != nil {
				return err
			}
			verdict, err := actionusecase.Verify(action, bundle.Signed)
			if err != nil {
				return err
			}
			return writeJSON(cmd, verdict)
		},
	}
}
