package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRestoreCmd(root *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore channels.json from the newest backup",
		Long: `Replace channels.json with its newest rotating backup. The current file is
backed up first, so a restore can itself be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := root.openManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				backups, err := manager.ListBackups()
				if err != nil {
					return err
				}
				if root.jsonOutput {
					if backups == nil {
						backups = []string{}
					}
					return writeJSON(out, backups)
				}
				if len(backups) == 0 {
					fmt.Fprintln(out, "No backups")
					return nil
				}
				for _, b := range backups {
					fmt.Fprintln(out, filepath.Base(b))
				}
				return nil
			}

			used, err := manager.RestoreLatestBackup()
			if err != nil {
				return err
			}

			if root.jsonOutput {
				return writeJSON(out, map[string]string{"restoredFrom": used})
			}
			fmt.Fprintf(out, "✅ Restored from %s\n", filepath.Base(used))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list backups instead of restoring")

	return cmd
}
