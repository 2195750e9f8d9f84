// Package config describes the optional YAML configuration file of the
// compiler. Flags always win over the file; the file wins over defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is probed when no explicit config path is given.
const DefaultPath = "nyacc.yml"

// Config carries the tunable defaults of a compiler run.
type Config struct {
	// Module names the generated IR module.
	Module string `yaml:"module"`
	// Optimize toggles the default O2 pipeline before IR emission and JIT.
	Optimize bool `yaml:"optimize"`
	// Fold toggles tree-level constant folding.
	Fold bool `yaml:"fold"`
	// Verbose raises the log level to debug.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Module:   "nyac",
		Optimize: true,
		Fold:     true,
	}
}

// Load reads a configuration file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file: %w", err)
	}
	return cfg, nil
}

// LoadIfPresent loads the file at path when it exists and silently falls
// back to the defaults when it does not. An explicit path that fails to
// parse is still an error.
func LoadIfPresent(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
