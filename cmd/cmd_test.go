package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proma/config"
	"proma/config/models"
)

// executeCommand runs proma against root with a file key store and returns stdout
func executeCommand(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()

	for _, key := range []string{config.EnvHome, config.EnvProbeTimeout, config.EnvKeyStore, config.EnvLogLevel, config.EnvBackupRetention} {
		t.Setenv(key, "")
	}

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--root", root, "--keystore", "file", "--log-level", "error"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func addChannel(t *testing.T, root string, args ...string) models.Channel {
	t.Helper()

	out, err := executeCommand(t, root, append([]string{"add", "--json"}, args...)...)
	require.NoError(t, err)

	var ch models.Channel
	require.NoError(t, json.Unmarshal([]byte(out), &ch), out)
	return ch
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func newOpenAIStub(t *testing.T, goodKey string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+goodKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"o3"}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRootCommandTree(t *testing.T) {
	cmd := NewRootCmd()

	want := []string{"list", "add", "edit", "remove", "show-key", "env", "test", "models", "rekey", "restore", "providers", "init", "tui"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
		assert.NotNil(t, sub.RunE, name)
	}
}

func TestAddAndList(t *testing.T) {
	root := t.TempDir()

	ch := addChannel(t, root, "--name", "work", "--provider", "anthropic", "--api-key", "sk-ant-secret-value", "--model", "claude-sonnet-4-5")
	assert.NotEmpty(t, ch.ID)
	assert.Equal(t, "https://api.anthropic.com", ch.BaseURL)
	assert.NotContains(t, ch.APIKey, "secret")
	require.Len(t, ch.Models, 1)
	assert.True(t, ch.Models[0].Enabled)

	data, err := os.ReadFile(filepath.Join(root, config.ChannelsFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-ant-secret-value")

	t.Run("json", func(t *testing.T) {
		out, err := executeCommand(t, root, "list", "--json")
		require.NoError(t, err)

		var channels []models.Channel
		require.NoError(t, json.Unmarshal([]byte(out), &channels))
		require.Len(t, channels, 1)
		assert.Equal(t, ch.ID, channels[0].ID)
		assert.NotContains(t, channels[0].APIKey, "secret")
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := executeCommand(t, root, "list", "-o", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "name: work")
		assert.Contains(t, out, "provider: anthropic")
	})

	t.Run("table", func(t *testing.T) {
		out, err := executeCommand(t, root, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "work")
		assert.Contains(t, out, "1/1")
		assert.NotContains(t, out, "sk-ant-secret-value")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := executeCommand(t, root, "list", "-o", "xml")
		assert.Error(t, err)
	})
}

func TestListEmpty(t *testing.T) {
	out, err := executeCommand(t, t.TempDir(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No channels configured")

	out, err = executeCommand(t, t.TempDir(), "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestAddValidation(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"missing provider and url", []string{"add", "--name", "x", "--api-key", "sk"}},
		{"unknown provider", []string{"add", "--name", "x", "--provider", "mistral", "--api-key", "sk"}},
		{"missing api key", []string{"add", "--name", "x", "--provider", "openai"}},
		{"custom without url", []string{"add", "--name", "x", "--provider", "custom", "--api-key", "sk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, root, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestAddDetectsProviderFromURL(t *testing.T) {
	root := t.TempDir()

	ch := addChannel(t, root, "--name", "ds", "--url", "https://api.deepseek.com/", "--api-key", "sk-ds")
	assert.Equal(t, models.ProviderDeepSeek, ch.Provider)
	assert.Equal(t, "https://api.deepseek.com", ch.BaseURL)

	ch = addChannel(t, root, "--name", "local", "--url", "http://localhost:8080/v1", "--api-key", "sk-local")
	assert.Equal(t, models.ProviderCustom, ch.Provider)
}

func TestEdit(t *testing.T) {
	root := t.TempDir()
	ch := addChannel(t, root, "--name", "work", "--provider", "openai", "--api-key", "sk-one", "--model", "gpt-4o,o3")

	_, err := executeCommand(t, root, "edit", ch.ID, "--name", "personal", "--disable", "--disable-model", "o3")
	require.NoError(t, err)

	out, err := executeCommand(t, root, "list", "--json")
	require.NoError(t, err)
	var channels []models.Channel
	require.NoError(t, json.Unmarshal([]byte(out), &channels))
	require.Len(t, channels, 1)

	got := channels[0]
	assert.Equal(t, "personal", got.Name)
	assert.False(t, got.Enabled)
	assert.True(t, got.Models[0].Enabled)
	assert.False(t, got.Models[1].Enabled)
	assert.Greater(t, got.UpdatedAt, ch.UpdatedAt)

	out, err = executeCommand(t, root, "show-key", ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "sk-one\n", out)

	_, err = executeCommand(t, root, "edit", ch.ID, "--api-key", "")
	require.NoError(t, err)
	out, err = executeCommand(t, root, "show-key", ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "sk-one\n", out)

	_, err = executeCommand(t, root, "edit", ch.ID, "--api-key", "sk-two")
	require.NoError(t, err)
	out, err = executeCommand(t, root, "show-key", ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "sk-two\n", out)

	t.Run("nothing to change", func(t *testing.T) {
		_, err := executeCommand(t, root, "edit", ch.ID)
		assert.Error(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := executeCommand(t, root, "edit", "missing", "--name", "x")
		assert.ErrorIs(t, err, config.ErrNotFound)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := executeCommand(t, root, "edit", ch.ID, "--enable-model", "gpt-9")
		assert.Error(t, err)
	})
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	first := addChannel(t, root, "--name", "a", "--provider", "openai", "--api-key", "sk-a")
	second := addChannel(t, root, "--name", "b", "--provider", "openai", "--api-key", "sk-b")

	out, err := executeCommand(t, root, "remove", first.ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Channel removed")

	_, err = executeCommand(t, root, "remove", first.ID, "--yes")
	assert.ErrorIs(t, err, config.ErrNotFound)

	out, err = executeCommand(t, root, "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, second.ID)
	assert.NotContains(t, out, first.ID)
}

func TestShowKeyMasked(t *testing.T) {
	root := t.TempDir()
	ch := addChannel(t, root, "--name", "a", "--provider", "openai", "--api-key", "sk-abcdefghijkl")

	out, err := executeCommand(t, root, "show-key", ch.ID, "--masked")
	require.NoError(t, err)
	assert.Equal(t, "sk-a****ijkl\n", out)

	_, err = executeCommand(t, root, "show-key", "missing")
	assert.ErrorIs(t, err, config.ErrNotFound)
}

func TestEnvCommand(t *testing.T) {
	root := t.TempDir()
	ch := addChannel(t, root, "--name", "work", "--provider", "anthropic", "--api-key", "sk-ant-value")

	out, err := executeCommand(t, root, "env", ch.ID, "--shell", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "export ANTHROPIC_API_KEY=sk-ant-value\n")
	assert.Contains(t, out, "export ANTHROPIC_BASE_URL=https://api.anthropic.com\n")

	out, err = executeCommand(t, root, "env", ch.ID, "--shell", "fish", "--unset")
	require.NoError(t, err)
	assert.Contains(t, out, "set -e ANTHROPIC_API_KEY;")
	assert.NotContains(t, out, "sk-ant-value")

	_, err = executeCommand(t, root, "env", ch.ID, "--shell", "tcsh")
	assert.Error(t, err)

	_, err = executeCommand(t, root, "env", "missing", "--shell", "bash")
	assert.ErrorIs(t, err, config.ErrNotFound)
}

func TestTestCommand(t *testing.T) {
	server := newOpenAIStub(t, "sk-good")
	root := t.TempDir()

	good := addChannel(t, root, "--name", "good", "--provider", "openai", "--url", server.URL+"/v1", "--api-key", "sk-good")
	bad := addChannel(t, root, "--name", "bad", "--provider", "openai", "--url", server.URL+"/v1", "--api-key", "sk-bad")

	t.Run("single success", func(t *testing.T) {
		out, err := executeCommand(t, root, "test", good.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "✅")
	})

	t.Run("single failure", func(t *testing.T) {
		out, err := executeCommand(t, root, "test", bad.ID, "--json")
		assert.Equal(t, 1, exitCode(err))

		var result models.TestResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.False(t, result.Success)
		assert.Equal(t, models.FailureInvalidCredential, result.Kind)
	})

	t.Run("all with partial success", func(t *testing.T) {
		out, err := executeCommand(t, root, "test", "--all")
		assert.Equal(t, 2, exitCode(err))
		assert.Contains(t, out, "1/2 channels passed")
	})

	t.Run("direct", func(t *testing.T) {
		_, err := executeCommand(t, root, "test", "--provider", "openai", "--url", server.URL+"/v1", "--api-key", "sk-good")
		require.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := executeCommand(t, root, "test", "missing")
		assert.ErrorIs(t, err, config.ErrNotFound)
	})

	t.Run("conflicting modes", func(t *testing.T) {
		_, err := executeCommand(t, root, "test", good.ID, "--all")
		assert.Error(t, err)
		assert.Equal(t, -1, exitCode(err))
	})
}

func TestModelsCommand(t *testing.T) {
	server := newOpenAIStub(t, "sk-good")
	root := t.TempDir()
	ch := addChannel(t, root, "--name", "good", "--provider", "openai", "--url", server.URL+"/v1", "--api-key", "sk-good", "--model", "gpt-4o")

	out, err := executeCommand(t, root, "models", ch.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "o3")

	out, err = executeCommand(t, root, "models", ch.ID, "--merge", "--json")
	require.NoError(t, err)
	var merged struct {
		Fetched int `json:"fetched"`
		Added   int `json:"added"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &merged))
	assert.Equal(t, 2, merged.Fetched)
	assert.Equal(t, 1, merged.Added)

	out, err = executeCommand(t, root, "list", "--json")
	require.NoError(t, err)
	var channels []models.Channel
	require.NoError(t, json.Unmarshal([]byte(out), &channels))
	require.Len(t, channels[0].Models, 2)
	assert.True(t, channels[0].Models[0].Enabled)
	assert.Equal(t, "o3", channels[0].Models[1].ID)
	assert.False(t, channels[0].Models[1].Enabled)

	_, err = executeCommand(t, root, "models", "--provider", "openai", "--url", server.URL+"/v1", "--api-key", "sk-bad")
	assert.Equal(t, 1, exitCode(err))

	_, err = executeCommand(t, root, "models", "--provider", "openai", "--api-key", "sk", "--merge")
	assert.Error(t, err)
}

func TestRekey(t *testing.T) {
	root := t.TempDir()

	_, err := executeCommand(t, root, "--keystore", "none", "add", "--name", "plain", "--provider", "openai", "--api-key", "sk-plaintext")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, config.ChannelsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sk-plaintext")

	out, err := executeCommand(t, root, "rekey")
	require.NoError(t, err)
	assert.Contains(t, out, "Encrypted 1 API keys")

	data, err = os.ReadFile(filepath.Join(root, config.ChannelsFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-plaintext")

	out, err = executeCommand(t, root, "rekey")
	require.NoError(t, err)
	assert.Contains(t, out, "already encrypted")
}

func TestRestore(t *testing.T) {
	root := t.TempDir()

	_, err := executeCommand(t, root, "restore")
	assert.Error(t, err)

	ch := addChannel(t, root, "--name", "before", "--provider", "openai", "--api-key", "sk-a")
	_, err = executeCommand(t, root, "edit", ch.ID, "--name", "after")
	require.NoError(t, err)

	out, err := executeCommand(t, root, "restore", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, config.ChannelsFileName+".backup-")

	_, err = executeCommand(t, root, "restore")
	require.NoError(t, err)

	out, err = executeCommand(t, root, "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "before"`)
}

func TestProvidersAndInit(t *testing.T) {
	root := t.TempDir()

	out, err := executeCommand(t, root, "providers")
	require.NoError(t, err)
	for _, name := range []string{"anthropic", "openai", "deepseek", "google", "custom"} {
		assert.Contains(t, out, name)
	}

	out, err = executeCommand(t, root, "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.SettingsFileName)
	assert.FileExists(t, filepath.Join(root, config.SettingsFileName))

	out, err = executeCommand(t, root, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestInvalidGlobalFlags(t *testing.T) {
	_, err := executeCommand(t, t.TempDir(), "--keystore", "vault", "list")
	assert.Error(t, err)

	_, err = executeCommand(t, t.TempDir(), "--timeout", "-1s", "list")
	assert.Error(t, err)
}
