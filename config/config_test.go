package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proma/internal/crypto"
)

func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvHome, EnvProbeTimeout, EnvKeyStore, EnvLogLevel, EnvBackupRetention} {
		t.Setenv(key, "")
	}
}

func TestResolveRootDir(t *testing.T) {
	clearSettingsEnv(t)

	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv(EnvHome, "/tmp/from-env")
		dir, err := ResolveRootDir("/tmp/explicit")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/explicit", dir)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(EnvHome, "/tmp/from-env")
		dir, err := ResolveRootDir("")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/from-env", dir)
	})

	t.Run("home default", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv(EnvHome, "")
		dir, err := ResolveRootDir("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".proma"), dir)
	})

	t.Run("relative paths become absolute", func(t *testing.T) {
		dir, err := ResolveRootDir("relative")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(dir))
	})
}

func TestLoadSettingsDefaults(t *testing.T) {
	clearSettingsEnv(t)

	settings, warnings, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, DefaultSettings(), settings)
	assert.Equal(t, 10*time.Second, settings.ProbeTimeout.Duration)
}

func TestLoadSettingsFile(t *testing.T) {
	clearSettingsEnv(t)
	root := t.TempDir()

	content := `
probe_timeout = "3s"
keystore = "file"
log_level = "debug"
backup_retention = 5
colour = "blue"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, SettingsFileName), []byte(content), 0600))

	settings, warnings, err := LoadSettings(root)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, settings.ProbeTimeout.Duration)
	assert.Equal(t, crypto.BackendFile, settings.KeyStore)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, 5, settings.BackupRetention)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "colour")
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	clearSettingsEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, SettingsFileName), []byte(`probe_timeout = "3s"`), 0600))

	t.Setenv(EnvProbeTimeout, "750ms")
	t.Setenv(EnvKeyStore, "none")
	t.Setenv(EnvBackupRetention, "7")

	settings, _, err := LoadSettings(root)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, settings.ProbeTimeout.Duration)
	assert.Equal(t, crypto.BackendNone, settings.KeyStore)
	assert.Equal(t, 7, settings.BackupRetention)
}

func TestLoadSettingsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "malformed toml", content: `probe_timeout = `},
		{name: "bad duration", content: `probe_timeout = "soon"`},
		{name: "negative timeout", content: `probe_timeout = "-1s"`},
		{name: "unknown keystore", content: `keystore = "vault"`},
		{name: "unknown log level", content: `log_level = "loud"`},
		{name: "zero retention", content: `backup_retention = 0`},
		{name: "bad env timeout", env: map[string]string{EnvProbeTimeout: "fast"}},
		{name: "bad env retention", env: map[string]string{EnvBackupRetention: "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSettingsEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			root := t.TempDir()
			if tt.content != "" {
				require.NoError(t, os.WriteFile(filepath.Join(root, SettingsFileName), []byte(tt.content), 0600))
			}

			_, _, err := LoadSettings(root)
			assert.Error(t, err)
		})
	}
}

func TestWriteDefaultSettings(t *testing.T) {
	clearSettingsEnv(t)
	root := t.TempDir()

	path, err := WriteDefaultSettings(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, SettingsFileName), path)

	settings, warnings, err := LoadSettings(root)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, DefaultSettings(), settings)

	_, err = WriteDefaultSettings(root)
	assert.ErrorIs(t, err, os.ErrExist)
}
