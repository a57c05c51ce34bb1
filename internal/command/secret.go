package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/portalapi/portal-api/internal/crypto"
)

func secretCommand() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "print a random value suitable for JWT_SECRET",
		Args:  cobra.NoArgs,
		// Generating a secret must work before any configuration exists.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := crypto.GenerateSecret(length)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)
			return err
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", 64, "number of characters")
	return cmd
}
