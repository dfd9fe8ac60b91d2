package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"proma/config/models"
	"proma/internal/utils"
)

type listOptions struct {
	*rootOptions
	output string
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all channels",
		Long:    "List all saved channels in insertion order. API keys are always masked.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json, yaml")

	return cmd
}

func (o *listOptions) run(cmd *cobra.Command) error {
	manager, err := o.openManager()
	if err != nil {
		return err
	}

	channels := maskChannels(manager.List())
	out := cmd.OutOrStdout()

	format := strings.ToLower(o.output)
	if o.jsonOutput {
		format = "json"
	}

	switch format {
	case "json":
		return writeJSON(out, channels)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(channels); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case "table":
	default:
		return fmt.Errorf("unknown output format %q: must be table, json or yaml", o.output)
	}

	if len(channels) == 0 {
		fmt.Fprintln(out, "No channels configured. Add one with 'proma add'.")
		return nil
	}

	rows := make([][]string, 0, len(channels))
	for _, ch := range channels {
		status := "enabled"
		if !ch.Enabled {
			status = "disabled"
		}
		rows = append(rows, []string{
			ch.ID,
			ch.Name,
			string(ch.Provider),
			ch.BaseURL,
			ch.APIKey,
			modelSummary(ch.Models),
			status,
			time.UnixMilli(ch.UpdatedAt).Format("2006-01-02 15:04"),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "PROVIDER", "BASE URL", "API KEY", "MODELS", "STATUS", "UPDATED").
		Rows(rows...)

	fmt.Fprintln(out, t.String())
	return nil
}

// maskChannels replaces stored keys with a mask so ciphertext is never printed
func maskChannels(channels []models.Channel) []models.Channel {
	masked := make([]models.Channel, len(channels))
	for i, ch := range channels {
		if ch.APIKey != "" {
			ch.APIKey = utils.MaskAPIKey(ch.APIKey)
		}
		masked[i] = ch
	}
	return masked
}

func modelSummary(list []models.Model) string {
	enabled := 0
	for _, m := range list {
		if m.Enabled {
			enabled++
		}
	}
	return fmt.Sprintf("%d/%d", enabled, len(list))
}
