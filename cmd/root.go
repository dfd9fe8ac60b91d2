package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"proma/config"
	"proma/internal/crypto"
	"proma/internal/probe"
)

// Version information
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// ExitError carries a process exit code without an error message of its own
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// rootOptions holds the global flags and the state built from them
type rootOptions struct {
	root       string
	jsonOutput bool
	timeout    time.Duration
	logLevel   string
	keystore   string

	in       io.Reader
	settings config.Settings
	logger   *slog.Logger
	manager  *config.Manager
}

// NewRootCmd builds the proma command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "proma",
		Short: "Manage AI provider channels",
		Long: `proma stores AI provider channels (endpoint, API key and models) in a local
JSON file, encrypts API keys at rest and checks that channels actually work.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	rootCmd.SetVersionTemplate(`proma {{.Version}}
Commit: ` + commit + `
Date: ` + date + `
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.root, "root", "", "data directory (default $PROMA_HOME or ~/.proma)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	flags.DurationVar(&opts.timeout, "timeout", 0, "probe timeout (default from settings, 10s)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.keystore, "keystore", "", "master key store: auto, keyring, file, none")

	rootCmd.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
		newShowKeyCmd(opts),
		newEnvCmd(opts),
		newTestCmd(opts),
		newModelsCmd(opts),
		newRekeyCmd(opts),
		newRestoreCmd(opts),
		newProvidersCmd(opts),
		newInitCmd(opts),
		newTUICmd(opts),
	)

	return rootCmd
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		fmt.Fprintf(rootCmd.ErrOrStderr(), "❌ Error: %v\n", err)
		return probe.ExitCodeFailure
	}
	return probe.ExitCodeSuccess
}

// setup resolves the root directory, reads settings.toml and applies the
// flags on top of it
func (o *rootOptions) setup(cmd *cobra.Command) error {
	root, err := config.ResolveRootDir(o.root)
	if err != nil {
		return err
	}
	o.root = root
	o.in = cmd.InOrStdin()

	settings, warnings, err := config.LoadSettings(root)
	if err != nil {
		return err
	}

	if o.logLevel != "" {
		settings.LogLevel = o.logLevel
	}
	if o.keystore != "" {
		if !crypto.ValidBackend(o.keystore) {
			return fmt.Errorf("invalid --keystore %q: must be one of auto, keyring, file, none", o.keystore)
		}
		settings.KeyStore = o.keystore
	}
	if o.timeout != 0 {
		if o.timeout < 0 {
			return fmt.Errorf("invalid --timeout %s: must be positive", o.timeout)
		}
		settings.ProbeTimeout = config.Duration{Duration: o.timeout}
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	o.settings = settings

	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: parseLevel(settings.LogLevel),
	}))
	for _, w := range warnings {
		o.logger.Warn(w)
	}

	return nil
}

// openManager builds the channel store on first use
func (o *rootOptions) openManager() (*config.Manager, error) {
	if o.manager != nil {
		return o.manager, nil
	}

	cipher := crypto.NewSecretCipher(crypto.CipherOptions{
		Backend: o.settings.KeyStore,
		RootDir: o.root,
	}, o.logger)

	prober := probe.NewProber(
		probe.WithTimeout(o.settings.ProbeTimeout.Duration),
		probe.WithLogger(o.logger),
		probe.WithUserAgent("proma/"+version),
	)

	m, err := config.NewManager(o.root,
		config.WithCipher(cipher),
		config.WithProber(prober),
		config.WithLogger(o.logger),
		config.WithBackupRetention(o.settings.BackupRetention),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize channel store: %w", err)
	}

	o.manager = m
	return m, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
