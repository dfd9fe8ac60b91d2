package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type removeOptions struct {
	*rootOptions
	yes bool
}

func newRemoveCmd(root *rootOptions) *cobra.Command {
	opts := &removeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a channel",
		Long:    "Remove the channel with the given id. Asks for confirmation in a terminal unless --yes is set.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			manager, err := opts.openManager()
			if err != nil {
				return err
			}

			ch, err := manager.Get(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !opts.yes && isTerminal(opts.in) {
				ok, err := newPrompter(opts.in, out).confirm(fmt.Sprintf("Remove channel %q", ch.Name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			if err := manager.Delete(id); err != nil {
				return err
			}

			if opts.jsonOutput {
				return writeJSON(out, map[string]interface{}{"id": id, "deleted": true})
			}
			fmt.Fprintf(out, "✅ Channel removed: %s (%s)\n", ch.Name, id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}
