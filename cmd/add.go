package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"proma/config"
	"proma/config/models"
	"proma/internal/probe"
	"proma/internal/providers"
)

type addOptions struct {
	*rootOptions
	name        string
	provider    string
	baseURL     string
	apiKey      string
	models      []string
	disabled    bool
	fetchModels bool
}

func newAddCmd(root *rootOptions) *cobra.Command {
	opts := &addOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new channel",
		Long: `Add a new channel.

Interactive (when run in a terminal without flags):
  proma add

With flags:
  proma add --name work --provider anthropic --api-key sk-ant-xxx
  proma add --name local --provider custom --url http://localhost:8080/v1 --api-key xxx --model llama3

The provider is detected from --url when --provider is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.name, "name", "n", "", "channel name")
	flags.StringVarP(&opts.provider, "provider", "p", "", "provider: anthropic, openai, deepseek, google, custom")
	flags.StringVarP(&opts.baseURL, "url", "u", "", "API base URL (default depends on provider)")
	flags.StringVarP(&opts.apiKey, "api-key", "k", "", "API key")
	flags.StringSliceVarP(&opts.models, "model", "m", nil, "enabled model id (repeatable)")
	flags.BoolVar(&opts.disabled, "disabled", false, "create the channel disabled")
	flags.BoolVar(&opts.fetchModels, "fetch-models", false, "fetch the provider's model list after creating")

	return cmd
}

func (o *addOptions) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	if o.name == "" && o.apiKey == "" && isTerminal(o.in) {
		if err := o.interactive(out); err != nil {
			return err
		}
	}

	input, err := o.input()
	if err != nil {
		return err
	}

	manager, err := o.openManager()
	if err != nil {
		return err
	}

	ch, err := manager.Create(input)
	if err != nil {
		return err
	}

	if o.fetchModels {
		o.mergeModels(cmd.Context(), out, manager, ch.ID)
		if refreshed, err := manager.Get(ch.ID); err == nil {
			ch = refreshed
		}
	}

	if o.jsonOutput {
		return writeJSON(out, maskChannels([]models.Channel{*ch})[0])
	}

	fmt.Fprintf(out, "✅ Channel created: %s (%s)\n", ch.Name, ch.ID)
	if !manager.EncryptionAvailable() {
		fmt.Fprintln(out, "⚠️  Encryption unavailable: the API key is stored as plaintext. Run 'proma rekey' once a key store is available.")
	}
	return nil
}

func (o *addOptions) input() (models.ChannelCreateInput, error) {
	provider, err := resolveProvider(o.provider, o.baseURL)
	if err != nil {
		return models.ChannelCreateInput{}, err
	}

	return models.ChannelCreateInput{
		Name:     o.name,
		Provider: provider,
		BaseURL:  o.baseURL,
		APIKey:   o.apiKey,
		Models:   enabledModels(o.models),
		Enabled:  !o.disabled,
	}, nil
}

func (o *addOptions) interactive(out io.Writer) error {
	p := newPrompter(o.in, out)

	var err error
	if o.name, err = p.ask("Channel name", ""); err != nil {
		return err
	}

	def := o.provider
	if def == "" {
		def = string(models.ProviderAnthropic)
	}
	if o.provider, err = p.ask("Provider ("+providerNames()+")", def); err != nil {
		return err
	}

	if o.baseURL, err = p.ask("Base URL", providers.DefaultBaseURL(models.ProviderType(o.provider))); err != nil {
		return err
	}

	if o.apiKey, err = p.secret("API key"); err != nil {
		return err
	}

	answer, err := p.ask("Enabled models (comma separated, optional)", "")
	if err != nil {
		return err
	}
	if answer != "" {
		o.models = strings.Split(answer, ",")
	}

	return nil
}

func (o *addOptions) mergeModels(ctx context.Context, out io.Writer, manager *config.Manager, id string) {
	result, err := manager.FetchChannelModels(ctx, id)
	if err != nil || !result.Success {
		msg := result.Message
		if err != nil {
			msg = err.Error()
		}
		fmt.Fprintf(out, "⚠️  Could not fetch models: %s\n", msg)
		return
	}

	added, err := manager.MergeFetchedModels(id, result.Models)
	if err != nil {
		fmt.Fprintf(out, "⚠️  Could not save models: %v\n", err)
		return
	}
	if !o.jsonOutput {
		fmt.Fprintf(out, "✅ Added %d models (disabled)\n", added)
	}
}

// resolveProvider validates an explicit provider or detects one from the URL
func resolveProvider(name, baseURL string) (models.ProviderType, error) {
	if name != "" {
		provider := models.ProviderType(strings.ToLower(name))
		if !provider.Valid() {
			return "", fmt.Errorf("unknown provider %q: must be one of %s", name, providerNames())
		}
		return provider, nil
	}

	if baseURL == "" {
		return "", fmt.Errorf("--provider is required (one of %s)", providerNames())
	}
	if provider, ok := probe.DetectProviderFromURL(baseURL); ok {
		return provider, nil
	}
	return models.ProviderCustom, nil
}

func providerNames() string {
	names := make([]string, 0, len(models.ProviderTypes))
	for _, p := range models.ProviderTypes {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// enabledModels turns model ids from flags into enabled models
func enabledModels(ids []string) []models.Model {
	var list []models.Model
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		list = append(list, models.Model{ID: id, Name: id, Enabled: true})
	}
	return list
}
