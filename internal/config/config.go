package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// DefaultAPIURL is used when neither flag, environment nor config file set a backend
	DefaultAPIURL = "http://localhost:5000"

	// EnvAPIURL overrides the backend base URL
	EnvAPIURL = "POSTCLI_API_URL"
	// EnvHome overrides the configuration directory
	EnvHome = "POSTCLI_HOME"
)

var (
	// ConfigDir is the global configuration directory (~/.postcli)
	ConfigDir string

	// DatabasePath is the SQLite database holding the persisted session
	DatabasePath string

	// ConfigFile is the optional YAML settings file
	ConfigFile string

	// LogFile receives the TUI logs (the terminal is owned by the UI)
	LogFile string
)

// Settings holds the user-editable configuration from config.yaml
type Settings struct {
	// APIURL is the backend base URL
	APIURL string `yaml:"apiUrl,omitempty"`

	// Timeout bounds every backend call. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Output is the default CLI output format (text, json, yaml, body)
	Output string `yaml:"output,omitempty"`

	// Highlight enables syntax highlighting of JSON bodies
	Highlight *bool `yaml:"highlight,omitempty"`

	// MessageTimeout clears TUI status and error messages after this long. Zero keeps them.
	MessageTimeout time.Duration `yaml:"messageTimeout,omitempty"`
}

// Initialize sets up the configuration directory and paths.
// It creates ~/.postcli/ (or $POSTCLI_HOME) if it doesn't exist.
func Initialize() error {
	dir := os.Getenv(EnvHome)
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".postcli")
	}

	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "postcli.db")
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
	LogFile = filepath.Join(ConfigDir, "postcli.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}

// Load reads settings from a YAML file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	settings := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if settings.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s: must not be negative", settings.Timeout)
	}
	if settings.MessageTimeout < 0 {
		return nil, fmt.Errorf("invalid messageTimeout %s: must not be negative", settings.MessageTimeout)
	}

	return settings, nil
}

// Save writes settings back to a YAML file
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveAPIURL picks the backend base URL.
// Priority: flag > $POSTCLI_API_URL > config file > DefaultAPIURL
func (s *Settings) ResolveAPIURL(flagValue string) string {
	candidates := []string{flagValue, os.Getenv(EnvAPIURL)}
	if s != nil {
		candidates = append(candidates, s.APIURL)
	}

	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return strings.TrimRight(c, "/")
		}
	}

	return DefaultAPIURL
}

// HighlightEnabled returns whether JSON highlighting is on (default true)
func (s *Settings) HighlightEnabled() bool {
	if s == nil || s.Highlight == nil {
		return true
	}
	return *s.Highlight
}
