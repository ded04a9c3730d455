package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sagachat/go-backend/internal/hwsigner"
	"sagachat/go-backend/internal/securestore"
	"sagachat/go-backend/pkg/models"
)

// keygen creates a software wallet for development, standing in for the
// hardware signer.
func keygenCmd(st *cliState) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create a development wallet that stands in for the hardware signer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := st.devWalletPath()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("dev wallet already exists; pass --force to replace it")
			}
			pass, err := st.vaultPassphrase()
			if err != nil {
				return err
			}
			signer, err := hwsigner.GenerateLocalSigner()
			if err != nil {
				return err
			}
			seed := signer.Seed()
			defer securestore.Wipe(seed)
			if err := securestore.WriteEncryptedFile(path, pass, seed); err != nil {
				return err
			}
			wallet, err := models.WalletAddressFromKey(signer.PublicKey())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wallet: %s\n", wallet)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing dev wallet")
	return cmd
}
