package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"proma/config/models"
	"proma/internal/probe"
)

type modelsOptions struct {
	*rootOptions
	merge    bool
	provider string
	baseURL  string
	apiKey   string
}

func newModelsCmd(root *rootOptions) *cobra.Command {
	opts := &modelsOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "models [id]",
		Short: "List the models a provider offers",
		Long: `List the models offered by a saved channel or by unsaved credentials.

  proma models 3f2c...           # list only
  proma models 3f2c... --merge   # add new models to the channel, disabled
  proma models --provider google --api-key AIza...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.merge, "merge", false, "add fetched models to the channel (disabled)")
	flags.StringVarP(&opts.provider, "provider", "p", "", "provider of unsaved credentials")
	flags.StringVarP(&opts.baseURL, "url", "u", "", "base URL of unsaved credentials")
	flags.StringVarP(&opts.apiKey, "api-key", "k", "", "API key of unsaved credentials")

	return cmd
}

func (o *modelsOptions) run(cmd *cobra.Command, args []string) error {
	direct := o.provider != "" || o.baseURL != "" || o.apiKey != ""
	if direct == (len(args) == 1) {
		return fmt.Errorf("specify either <id> or --provider/--url/--api-key")
	}
	if o.merge && direct {
		return fmt.Errorf("--merge requires a channel id")
	}

	manager, err := o.openManager()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reporter := probe.NewReporter(out, probe.WithJSONOutput(o.jsonOutput))

	var result models.FetchModelsResult
	if direct {
		creds, err := directCredentials(o.provider, o.baseURL, o.apiKey)
		if err != nil {
			return err
		}
		result = manager.FetchModels(cmd.Context(), creds)
	} else {
		if result, err = manager.FetchChannelModels(cmd.Context(), args[0]); err != nil {
			return err
		}
	}

	if !o.merge || !result.Success {
		if err := reporter.ReportModels(result); err != nil {
			return err
		}
		if !result.Success {
			return exitFor(probe.ExitCodeFailure)
		}
		return nil
	}

	added, err := manager.MergeFetchedModels(args[0], result.Models)
	if err != nil {
		return err
	}

	if o.jsonOutput {
		return writeJSON(out, map[string]interface{}{
			"id":      args[0],
			"fetched": len(result.Models),
			"added":   added,
		})
	}
	fmt.Fprintf(out, "✅ %s, %d new (added disabled)\n", result.Message, added)
	return nil
}
