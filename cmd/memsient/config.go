package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration, stored as YAML under the user
// config directory (~/.config/memsient/config.yaml on Linux).
type Config struct {
	// APIBaseURL is the backend origin. Empty means the SDK default.
	APIBaseURL string `yaml:"api_base_url"`

	// Theme is the dashboard theme preference, "light" or "dark".
	// Absent defaults to dark, and the default is written back so the
	// file always reflects the effective value.
	Theme string `yaml:"theme"`
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve config directory: %w", err)
	}
	return filepath.Join(dir, "memsient", "config.yaml"), nil
}

// loadConfig reads the config file, applying and persisting the theme
// default when the key is absent. A missing file yields defaults.
func loadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}
	if cfg.Theme == "" {
		cfg.Theme = "dark"
		// Best effort: an unwritable config dir should not block the
		// command that triggered the load.
		_ = saveConfig(cfg)
	}
	return cfg, nil
}

func saveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
