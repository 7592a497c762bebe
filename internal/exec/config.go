package exec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds graph-engine connection settings.
type Config struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("config: uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	return &cfg, nil
}
