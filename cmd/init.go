package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"proma/config"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and a default settings.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(root.root, 0700); err != nil {
				return fmt.Errorf("failed to create %s: %w", root.root, err)
			}

			out := cmd.OutOrStdout()
			path, err := config.WriteDefaultSettings(root.root)
			if errors.Is(err, os.ErrExist) {
				fmt.Fprintf(out, "⚠️  %s already exists, left unchanged\n", path)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "✅ Wrote %s\n", path)
			return nil
		},
	}
}
