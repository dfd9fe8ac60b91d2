package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"proma/config/models"
	"proma/internal/probe"
)

type testOptions struct {
	*rootOptions
	all      bool
	provider string
	baseURL  string
	apiKey   string
	verbose  bool
}

func newTestCmd(root *rootOptions) *cobra.Command {
	opts := &testOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:     "test [id]",
		Aliases: []string{"ping"},
		Short:   "Test channel connectivity",
		Long: `Test that a channel's endpoint is reachable and its API key is accepted.

1. Test a saved channel:
   proma test 3f2c...

2. Test every enabled channel:
   proma test --all

3. Test credentials without saving them:
   proma test --provider openai --api-key sk-xxx
   proma test --url https://api.deepseek.com --api-key sk-xxx

Exit status is 0 when every test passed, 2 when some passed and 1 when none did.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.all, "all", "a", false, "test every enabled channel")
	flags.StringVarP(&opts.provider, "provider", "p", "", "provider of unsaved credentials")
	flags.StringVarP(&opts.baseURL, "url", "u", "", "base URL of unsaved credentials")
	flags.StringVarP(&opts.apiKey, "api-key", "k", "", "API key of unsaved credentials")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show failure kind and HTTP status")

	return cmd
}

func (o *testOptions) run(cmd *cobra.Command, args []string) error {
	direct := o.provider != "" || o.baseURL != "" || o.apiKey != ""

	modes := 0
	for _, set := range []bool{len(args) == 1, o.all, direct} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("specify exactly one of <id>, --all or --provider/--url/--api-key")
	}

	manager, err := o.openManager()
	if err != nil {
		return err
	}

	reporter := probe.NewReporter(cmd.OutOrStdout(),
		probe.WithJSONOutput(o.jsonOutput),
		probe.WithVerboseOutput(o.verbose),
	)
	ctx := cmd.Context()

	switch {
	case o.all:
		reports := manager.TestAll(ctx)
		if err := reporter.ReportAll(reports); err != nil {
			return err
		}
		return exitFor(probe.ExitCodeFor(reports))

	case direct:
		creds, err := directCredentials(o.provider, o.baseURL, o.apiKey)
		if err != nil {
			return err
		}
		result := manager.TestDirect(ctx, creds)
		if err := reporter.ReportTest(string(creds.Provider), result); err != nil {
			return err
		}
		return exitForResult(result)

	default:
		ch, err := manager.Get(args[0])
		if err != nil {
			return err
		}
		result, err := manager.Test(ctx, ch.ID)
		if err != nil {
			return err
		}
		if err := reporter.ReportTest(fmt.Sprintf("%s [%s]", ch.Name, ch.Provider), result); err != nil {
			return err
		}
		return exitForResult(result)
	}
}

// directCredentials builds probe input from flags, detecting the provider
// from the URL when it is not given
func directCredentials(provider, baseURL, apiKey string) (models.Credentials, error) {
	p, err := resolveProvider(provider, baseURL)
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{Provider: p, BaseURL: baseURL, APIKey: apiKey}, nil
}

func exitForResult(result models.TestResult) error {
	if result.Success {
		return nil
	}
	return exitFor(probe.ExitCodeFailure)
}

func exitFor(code int) error {
	if code == probe.ExitCodeSuccess {
		return nil
	}
	return &ExitError{Code: code}
}
