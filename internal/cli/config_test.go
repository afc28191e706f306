package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Contains(t, cfg.Database, ".kairos")
	assert.Contains(t, cfg.Settings, "settings.json")
	assert.NotEmpty(t, cfg.API.BaseURL)
}

func TestLoadConfig_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"database: /tmp/custom.db\napi:\n  token: tok-123\n",
	), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Database)
	assert.Equal(t, "tok-123", cfg.API.Token)
	assert.NotEmpty(t, cfg.API.BaseURL, "unset keys keep their defaults")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["status"])
	assert.True(t, names["reset"])
}

func TestResetCommand_RequiresConfirmation(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"reset"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
