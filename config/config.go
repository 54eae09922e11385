// Package config loads the smokerep run configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Version     string `yaml:"version"`
	ReportDir   string `yaml:"report_dir"`
	JournalDir  string `yaml:"journal_dir,omitempty"`
	HistoryDB   string `yaml:"history_db,omitempty"`
	ToolVersion string `yaml:"tool_version,omitempty"`
	Quiet       bool   `yaml:"quiet,omitempty"`
	Metrics     string `yaml:"metrics_addr,omitempty"`
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.ReportDir == "" {
		return fmt.Errorf("report_dir is required")
	}
	return nil
}
