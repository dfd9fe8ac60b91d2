package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRekeyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rekey",
		Short: "Encrypt API keys stored as plaintext",
		Long: `Encrypt every API key that was stored as plaintext while no key store was
available. Keys that are already encrypted are left unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := root.openManager()
			if err != nil {
				return err
			}

			n, err := manager.Reencrypt()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				return writeJSON(out, map[string]int{"encrypted": n})
			}
			if n == 0 {
				fmt.Fprintln(out, "✅ All API keys are already encrypted")
				return nil
			}
			fmt.Fprintf(out, "✅ Encrypted %d API keys\n", n)
			return nil
		},
	}
}
