package ctl

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// Config holds gmctl defaults. Flags win over env, env over the file.
type Config struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	DB     string `yaml:"db"`
	Output string `yaml:"output"`
}

const defaultConfigPath = "./gmctl.yaml"

// LoadFromFile reads a gmctl config. A missing default file is not an error.
func LoadFromFile(path string, explicit bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// resolveConfig merges file, GMCTL_* env and the persistent flags.
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = getEnvOrDefault("GMCTL_CONFIG", defaultConfigPath)
		explicit = os.Getenv("GMCTL_CONFIG") != ""
	}
	cfg, err := LoadFromFile(path, explicit)
	if err != nil {
		return nil, err
	}

	cfg.Host = getEnvOrDefault("GMCTL_HOST", cfg.Host)
	cfg.APIKey = getEnvOrDefault("GMCTL_API_KEY", cfg.APIKey)
	cfg.DB = getEnvOrDefault("GMCTL_DB", cfg.DB)
	cfg.Output = getEnvOrDefault("GMCTL_OUTPUT", cfg.Output)

	if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
		cfg.DB = f.Value.String()
	}
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		cfg.Output = f.Value.String()
	}
	if cfg.Host == "" {
		cfg.Host = "http://localhost:8080"
	}
	return cfg, nil
}
