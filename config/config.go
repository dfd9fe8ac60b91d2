package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"proma/config/storage"
	"proma/internal/crypto"
	"proma/internal/probe"
)

// File names inside the root directory
const (
	ChannelsFileName = "channels.json"
	SettingsFileName = "settings.toml"
	lockFileName     = "channels.json.lock"
)

// Environment variables read by LoadSettings and ResolveRootDir
const (
	EnvHome            = "PROMA_HOME"
	EnvProbeTimeout    = "PROMA_PROBE_TIMEOUT"
	EnvKeyStore        = "PROMA_KEYSTORE"
	EnvLogLevel        = "PROMA_LOG_LEVEL"
	EnvBackupRetention = "PROMA_BACKUP_RETENTION"
)

// Duration is a time.Duration written as "10s" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings are the optional knobs in <root>/settings.toml
type Settings struct {
	ProbeTimeout    Duration `toml:"probe_timeout"`
	KeyStore        string   `toml:"keystore"`
	LogLevel        string   `toml:"log_level"`
	BackupRetention int      `toml:"backup_retention"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		ProbeTimeout:    Duration{probe.DefaultTimeout},
		KeyStore:        crypto.BackendAuto,
		LogLevel:        "warn",
		BackupRetention: storage.DefaultBackupRetention,
	}
}

// ResolveRootDir picks the root directory: explicit value, then PROMA_HOME,
// then ~/.proma
func ResolveRootDir(explicit string) (string, error) {
	dir := explicit
	if dir == "" {
		dir = os.Getenv(EnvHome)
	}
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".proma")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return abs, nil
}

// LoadSettings reads <rootDir>/settings.toml if present and applies
// environment overrides. Unknown keys are returned as warnings.
func LoadSettings(rootDir string) (Settings, []string, error) {
	settings := DefaultSettings()
	var warnings []string

	path := filepath.Join(rootDir, SettingsFileName)
	if storage.FileExists(path) {
		md, err := toml.DecodeFile(path, &settings)
		if err != nil {
			return settings, nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for _, key := range md.Undecoded() {
			warnings = append(warnings, fmt.Sprintf("unknown setting %q in %s", key.String(), path))
		}
	}

	if v := os.Getenv(EnvProbeTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return settings, warnings, fmt.Errorf("invalid %s: %w", EnvProbeTimeout, err)
		}
		settings.ProbeTimeout = Duration{d}
	}
	if v := os.Getenv(EnvKeyStore); v != "" {
		settings.KeyStore = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		settings.LogLevel = v
	}
	if v := os.Getenv(EnvBackupRetention); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return settings, warnings, fmt.Errorf("invalid %s: %w", EnvBackupRetention, err)
		}
		settings.BackupRetention = n
	}

	return settings, warnings, settings.Validate()
}

// Validate checks the settings values
func (s Settings) Validate() error {
	if s.ProbeTimeout.Duration <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s", s.ProbeTimeout.Duration)
	}
	if !crypto.ValidBackend(s.KeyStore) {
		return fmt.Errorf("keystore must be one of auto, keyring, file, none; got %q", s.KeyStore)
	}
	switch strings.ToLower(s.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", s.LogLevel)
	}
	if s.BackupRetention < 1 {
		return fmt.Errorf("backup_retention must be at least 1, got %d", s.BackupRetention)
	}
	return nil
}

// WriteDefaultSettings creates settings.toml with the defaults when it does not exist
func WriteDefaultSettings(rootDir string) (string, error) {
	path := filepath.Join(rootDir, SettingsFileName)
	if storage.FileExists(path) {
		return path, os.ErrExist
	}

	var sb strings.Builder
	sb.WriteString("# proma settings\n")
	if err := toml.NewEncoder(&sb).Encode(DefaultSettings()); err != nil {
		return "", fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := storage.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return "", err
	}
	return path, nil
}
