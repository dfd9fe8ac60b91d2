package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"proma/config/models"
)

type editOptions struct {
	*rootOptions
	name         string
	provider     string
	baseURL      string
	apiKey       string
	models       []string
	clearModels  bool
	enable       bool
	disable      bool
	enableModel  []string
	disableModel []string
}

func newEditCmd(root *rootOptions) *cobra.Command {
	opts := &editOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a channel",
		Long: `Edit a channel. Only the given flags are changed.

An empty --api-key keeps the stored key.

Examples:
  proma edit 3f2c... --name personal
  proma edit 3f2c... --api-key sk-new
  proma edit 3f2c... --enable-model gpt-4o --disable-model gpt-3.5-turbo
  proma edit 3f2c... --disable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.name, "name", "n", "", "new channel name")
	flags.StringVarP(&opts.provider, "provider", "p", "", "new provider")
	flags.StringVarP(&opts.baseURL, "url", "u", "", "new API base URL")
	flags.StringVarP(&opts.apiKey, "api-key", "k", "", "new API key")
	flags.StringSliceVarP(&opts.models, "model", "m", nil, "replace the model list with these enabled models")
	flags.BoolVar(&opts.clearModels, "clear-models", false, "remove every model from the channel")
	flags.BoolVar(&opts.enable, "enable", false, "enable the channel")
	flags.BoolVar(&opts.disable, "disable", false, "disable the channel")
	flags.StringSliceVar(&opts.enableModel, "enable-model", nil, "enable a model already in the list (repeatable)")
	flags.StringSliceVar(&opts.disableModel, "disable-model", nil, "disable a model already in the list (repeatable)")

	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	cmd.MarkFlagsMutuallyExclusive("model", "clear-models")

	return cmd
}

func (o *editOptions) run(cmd *cobra.Command, id string) error {
	flags := cmd.Flags()

	var input models.ChannelUpdateInput
	changed := false

	if flags.Changed("name") {
		input.Name = &o.name
		changed = true
	}
	if flags.Changed("provider") {
		provider, err := resolveProvider(o.provider, "")
		if err != nil {
			return err
		}
		input.Provider = &provider
		changed = true
	}
	if flags.Changed("url") {
		input.BaseURL = &o.baseURL
		changed = true
	}
	if flags.Changed("api-key") {
		input.APIKey = &o.apiKey
		changed = true
	}
	if flags.Changed("model") {
		input.Models = enabledModels(o.models)
		if input.Models == nil {
			input.Models = []models.Model{}
		}
		changed = true
	}
	if o.clearModels {
		input.Models = []models.Model{}
		changed = true
	}
	if o.enable || o.disable {
		enabled := o.enable
		input.Enabled = &enabled
		changed = true
	}

	toggles := len(o.enableModel) > 0 || len(o.disableModel) > 0
	if !changed && !toggles {
		return fmt.Errorf("nothing to change: pass at least one flag (see 'proma edit --help')")
	}

	manager, err := o.openManager()
	if err != nil {
		return err
	}

	var ch *models.Channel
	if changed {
		if ch, err = manager.Update(id, input); err != nil {
			return err
		}
	}
	if len(o.enableModel) > 0 {
		if ch, err = manager.SetModelsEnabled(id, o.enableModel, true); err != nil {
			return err
		}
	}
	if len(o.disableModel) > 0 {
		if ch, err = manager.SetModelsEnabled(id, o.disableModel, false); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if o.jsonOutput {
		return writeJSON(out, maskChannels([]models.Channel{*ch})[0])
	}

	fmt.Fprintf(out, "✅ Channel updated: %s (%s)\n", ch.Name, ch.ID)
	return nil
}
