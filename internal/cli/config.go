package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eleven-am/todosync/internal/api"
	"github.com/eleven-am/todosync/internal/credentials"
	"gopkg.in/yaml.v3"
	"k8s.io/utils/env"
)

// Config represents the todosync.yaml configuration structure
type Config struct {
	Version string `yaml:"version"`

	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Credentials struct {
		Backend     string `yaml:"backend"`
		Path        string `yaml:"path"`
		DatabaseURL string `yaml:"database_url"`
		Table       string `yaml:"table"`
	} `yaml:"credentials"`
}

const defaultTimeout = 30 * time.Second

var configLocations = []string{"todosync.yaml", "todosync.yml", ".todosync.yaml", ".todosync.yml"}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = api.DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaultTimeout
	}
	if c.Credentials.Backend == "" {
		c.Credentials.Backend = credentials.BackendFile
	}
	if c.Credentials.Backend == credentials.BackendFile && c.Credentials.Path == "" {
		c.Credentials.Path = credentials.DefaultPath()
	}
	if c.Credentials.Backend == credentials.BackendSQL && c.Credentials.Table == "" {
		c.Credentials.Table = credentials.DefaultTable
	}
}

// LoadConfig reads the config file at path, or the first one found in
// the working directory or ~/.todosync. It returns nil, nil when there is
// no file to read.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// ApplyEnv overrides config values from TODOSYNC_* environment variables.
func ApplyEnv(cfg *Config) error {
	cfg.API.BaseURL = envOr("TODOSYNC_API_URL", cfg.API.BaseURL)
	cfg.Credentials.Backend = envOr("TODOSYNC_CREDENTIALS", cfg.Credentials.Backend)
	cfg.Credentials.DatabaseURL = envOr("TODOSYNC_DATABASE_URL", cfg.Credentials.DatabaseURL)

	if raw := envOr("TODOSYNC_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid TODOSYNC_TIMEOUT %q: %w", raw, err)
		}
		cfg.API.Timeout = d
	}

	cfg.applyDefaults()
	return nil
}

// envOr treats an empty variable as unset.
func envOr(key, fallback string) string {
	if v := env.GetString(key, ""); v != "" {
		return v
	}
	return fallback
}

func GetConfigPath() string {
	if path := os.Getenv("TODOSYNC_CONFIG"); path != "" {
		return path
	}

	for _, loc := range configLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		loc := filepath.Join(home, ".todosync", "config.yaml")
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

func SaveConfig(config *Config, path string) error {
	if path == "" {
		path = "todosync.yaml"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
