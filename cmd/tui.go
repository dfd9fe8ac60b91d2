package cmd

import (
	"github.com/spf13/cobra"

	"proma/internal/tui"
)

func newTUICmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and manage channels in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := root.openManager()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), manager, root.logger)
		},
	}
}
