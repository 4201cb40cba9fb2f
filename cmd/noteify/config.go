package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional config file. Flags and environment variables
// take precedence over every field.
type Config struct {
	Vault    string        `yaml:"vault"`
	Socket   string        `yaml:"socket"`
	Interval time.Duration `yaml:"interval"`
	Verbose  bool          `yaml:"verbose"`

	// Navigate is the navigation command, one argument per element.
	Navigate []string `yaml:"navigate"`
}

// DefaultConfigPath returns ~/.config/noteify/config.yaml, honoring
// XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "noteify.yaml"
	}
	return filepath.Join(dir, "noteify", "config.yaml")
}

// LoadConfig reads the YAML config at path. A missing file yields an empty
// config unless required is set.
func LoadConfig(path string, required bool) (*Config, error) {
	var cfg Config

	file, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
