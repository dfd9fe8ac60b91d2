package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"proma/internal/providers"
)

type providerInfo struct {
	Name           string `json:"name"`
	Label          string `json:"label"`
	DefaultBaseURL string `json:"defaultBaseUrl"`
	DefaultModel   string `json:"defaultModel,omitempty"`
}

func newProvidersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []providerInfo
			for _, p := range providers.List() {
				infos = append(infos, providerInfo{
					Name:           string(p.Name()),
					Label:          p.Label(),
					DefaultBaseURL: p.DefaultBaseURL(),
					DefaultModel:   p.DefaultModel(),
				})
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				return writeJSON(out, infos)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLABEL\tDEFAULT URL")
			for _, info := range infos {
				url := info.DefaultBaseURL
				if url == "" {
					url = "(required)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Label, url)
			}
			return w.Flush()
		},
	}
}
