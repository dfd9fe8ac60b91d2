package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"proma/internal/shell"
)

func newEnvCmd(root *rootOptions) *cobra.Command {
	var (
		shellName string
		unset     bool
	)

	cmd := &cobra.Command{
		Use:   "env <id>",
		Short: "Print shell statements exporting a channel's credentials",
		Long: `Print shell statements that export the API key and base URL of a channel
under the variable names the provider's SDKs read.`,
		Example: `  eval "$(proma env 3f2a...)"
  proma env 3f2a... --shell fish | source
  eval "$(proma env 3f2a... --unset)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect := shell.DetectDialect()
			if shellName != "" {
				var err error
				if dialect, err = shell.ParseDialect(shellName); err != nil {
					return err
				}
			}

			manager, err := root.openManager()
			if err != nil {
				return err
			}

			ch, err := manager.Get(args[0])
			if err != nil {
				return err
			}

			gen, err := shell.NewGenerator(dialect)
			if err != nil {
				return err
			}

			comment := fmt.Sprintf("proma channel %s (%s)", ch.Name, ch.Provider)
			var out string
			if unset {
				out, err = gen.Unset(comment, shell.Vars(ch.Provider, ch.BaseURL, ""))
			} else {
				key, derr := manager.DecryptAPIKey(ch.ID)
				if derr != nil {
					return derr
				}
				out, err = gen.Export(comment, shell.Vars(ch.Provider, ch.BaseURL, key))
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&shellName, "shell", "s", "", "shell syntax: bash, zsh or fish (default from $SHELL)")
	cmd.Flags().BoolVar(&unset, "unset", false, "print statements removing the variables instead")

	return cmd
}
