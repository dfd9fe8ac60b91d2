package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"proma/internal/utils"
)

func newShowKeyCmd(root *rootOptions) *cobra.Command {
	var masked bool

	cmd := &cobra.Command{
		Use:   "show-key <id>",
		Short: "Print the decrypted API key of a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := root.openManager()
			if err != nil {
				return err
			}

			key, err := manager.DecryptAPIKey(args[0])
			if err != nil {
				return err
			}
			if masked {
				key = utils.MaskAPIKey(key)
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				return writeJSON(out, map[string]string{"id": args[0], "apiKey": key})
			}
			fmt.Fprintln(out, key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&masked, "masked", false, "print the key masked")

	return cmd
}
