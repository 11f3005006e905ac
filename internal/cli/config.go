package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML config file. Flags win over config values.
//
//	db: /home/me/.poh/habits.db
//	identity: alice
type Config struct {
	DB       string `yaml:"db,omitempty"`
	Identity string `yaml:"identity,omitempty"`
}

// LoadConfig reads and strictly parses a config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// applyConfig fills unset root options from the config file, when one is
// given. Explicit flags always take precedence.
func applyConfig(opts *RootOptions) error {
	if opts.Config == "" {
		return nil
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return err
	}

	if opts.DB == "poh.db" && cfg.DB != "" {
		opts.DB = cfg.DB
	}
	if opts.As == "" && cfg.Identity != "" {
		opts.As = cfg.Identity
	}
	return nil
}
