package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the yaml file driving the CLI.
type Config struct {
	// Database is the sqlite path for entity rows and the outbox.
	Database string `yaml:"database"`
	// Settings is the path of the persisted preferences blob.
	Settings string `yaml:"settings"`
	API      struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"api"`
}

// DefaultConfig fills paths under the user's home directory.
func DefaultConfig() Config {
	var cfg Config
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cfg.Database = filepath.Join(home, ".kairos", "kairos.db")
	cfg.Settings = filepath.Join(home, ".kairos", "settings.json")
	cfg.API.BaseURL = "https://api.track.toggl.com/api/v8"
	return cfg
}

// LoadConfig reads a yaml config, layering it over the defaults. An
// empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(blob, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
