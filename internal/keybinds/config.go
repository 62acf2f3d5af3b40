package keybinds

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// ConfigFileName is looked up in the configuration directory
const ConfigFileName = "keybinds.json"

// Config represents the user's keybinding configuration.
// Each section maps an action to a comma-separated list of keys.
type Config struct {
	Version  string            `json:"version"`
	Global   map[string]string `json:"global,omitempty"`
	Auth     map[string]string `json:"auth,omitempty"`
	Compose  map[string]string `json:"compose,omitempty"`
	Method   map[string]string `json:"method,omitempty"`
	Response map[string]string `json:"response,omitempty"`
	History  map[string]string `json:"history,omitempty"`
	Search   map[string]string `json:"search,omitempty"`
	Help     map[string]string `json:"help,omitempty"`
}

// sections maps config sections to contexts
func (c *Config) sections() map[Context]map[string]string {
	return map[Context]map[string]string{
		ContextGlobal:   c.Global,
		ContextAuth:     c.Auth,
		ContextCompose:  c.Compose,
		ContextMethod:   c.Method,
		ContextResponse: c.Response,
		ContextHistory:  c.History,
		ContextSearch:   c.Search,
		ContextHelp:     c.Help,
	}
}

// LoadConfig loads keybinding configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", ConfigFileName, err)
	}

	return &config, nil
}

// SaveConfig saves keybinding configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// splitKeys parses "up,k" into its keys
func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		// a lone space is the space bar
		if k == " " {
			keys = append(keys, k)
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ApplyConfig applies user configuration to a registry.
// User bindings replace the default keys of the same action.
func ApplyConfig(registry *Registry, config *Config) error {
	var errs []error
	for context, bindings := range config.sections() {
		for actionStr, keyList := range bindings {
			action := Action(actionStr)
			if !IsKnownAction(action) {
				errs = append(errs, fmt.Errorf("unknown action %q in section %q", actionStr, context))
				continue
			}
			keys := splitKeys(keyList)
			for _, k := range keys {
				if err := ValidateKey(k); err != nil {
					errs = append(errs, fmt.Errorf("section %q: %w", context, err))
				}
			}
			registry.Rebind(context, action, keys)
		}
	}
	return errors.Join(errs...)
}

// LoadOrDefault loads user config if it exists, otherwise returns default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	// Start with defaults
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err != nil {
		// If config doesn't exist, that's fine - use defaults
		return registry, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return registry, fmt.Errorf("failed to load %s: %w", ConfigFileName, err)
	}

	// Apply user config over defaults
	if err := ApplyConfig(registry, config); err != nil {
		return registry, fmt.Errorf("failed to apply keybinds config: %w", err)
	}

	return registry, nil
}

// ExportDefaults exports the default keybindings as a config
// Useful for users to see what can be customized
func ExportDefaults() *Config {
	registry := NewDefaultRegistry()
	config := &Config{Version: "1.0"}

	for context, target := range map[Context]*map[string]string{
		ContextGlobal:   &config.Global,
		ContextAuth:     &config.Auth,
		ContextCompose:  &config.Compose,
		ContextMethod:   &config.Method,
		ContextResponse: &config.Response,
		ContextHistory:  &config.History,
		ContextSearch:   &config.Search,
		ContextHelp:     &config.Help,
	} {
		grouped := make(map[string][]string)
		for _, b := range registry.ListBindings(context) {
			grouped[string(b.Action)] = append(grouped[string(b.Action)], b.Key)
		}
		if len(grouped) == 0 {
			continue
		}
		*target = make(map[string]string, len(grouped))
		for action, keys := range grouped {
			(*target)[action] = strings.Join(keys, ",")
		}
	}

	return config
}

// DefaultConfigPath returns the keybinds file inside dir
func DefaultConfigPath(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}
