package mock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config represents the development backend configuration
type Config struct {
	Host         string        `json:"host" yaml:"host"`                 // Server host (default: localhost)
	Port         int           `json:"port" yaml:"port"`                 // Server port (default: 5000)
	Secret       string        `json:"secret" yaml:"secret"`             // HS256 signing secret
	TokenTTL     time.Duration `json:"tokenTTL" yaml:"tokenTTL"`         // Token lifetime (default: 1h)
	ProxyTimeout time.Duration `json:"proxyTimeout" yaml:"proxyTimeout"` // Outbound call timeout (default: 30s)
	Users        []SeedUser    `json:"users,omitempty" yaml:"users,omitempty"`
}

// SeedUser is an account created at startup
type SeedUser struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Host:         "localhost",
		Port:         5000,
		Secret:       "postcli-dev-secret",
		TokenTTL:     time.Hour,
		ProxyTimeout: 30 * time.Second,
	}
}

// LoadConfig loads a backend configuration from a file, on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// validateConfig validates the backend configuration
func validateConfig(config *Config) error {
	if config.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	if config.TokenTTL < 0 {
		return fmt.Errorf("tokenTTL must not be negative")
	}

	seen := make(map[string]bool)
	for i, u := range config.Users {
		if u.Username == "" || u.Password == "" {
			return fmt.Errorf("user %d: username and password are required", i)
		}
		if seen[u.Username] {
			return fmt.Errorf("user %d: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = true
	}

	return nil
}
