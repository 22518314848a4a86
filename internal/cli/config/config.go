package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CLIConfig holds krishnadb-cli defaults. Empty fields leave the built-in
// flag defaults in place.
type CLIConfig struct {
	Server  string `yaml:"server,omitempty"`
	Admin   string `yaml:"admin,omitempty"`
	Output  string `yaml:"output,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".krishnadb", "cli.yaml")
	}
	return filepath.Join(homeDir, ".krishnadb", "cli.yaml")
}

// Load reads the config file. A missing file yields an empty config.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &CLIConfig{}, nil
		}
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path, readable only by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Flags maps flag names to the configured values that are set.
func (c *CLIConfig) Flags() map[string]string {
	out := make(map[string]string, 4)
	for name, v := range map[string]string{
		"server":  c.Server,
		"admin":   c.Admin,
		"output":  c.Output,
		"timeout": c.Timeout,
	} {
		if v != "" {
			out[name] = v
		}
	}
	return out
}
