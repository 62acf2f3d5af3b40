package keybinds

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a keybinding validation error
type ValidationError struct {
	Type    string // "conflict", "invalid", "warning"
	Context Context
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in context '%s': %s", e.Type, e.Key, e.Context, e.Message)
}

// ValidationResult contains all validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Errors (%d):\n", len(r.Errors)))
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("Warnings (%d):\n", len(r.Warnings)))
		for _, warn := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn.Error()))
		}
	}

	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

// Validator validates keybinding configurations
type Validator struct {
	// reservedKeys are keys that should not be rebound, with the action they keep
	reservedKeys map[string]Action

	// textContexts receive printable keys as text, so only control keys may be bound there
	textContexts map[Context]bool
}

// NewValidator creates a new keybinding validator
func NewValidator() *Validator {
	return &Validator{
		reservedKeys: map[string]Action{
			"ctrl+c": ActionQuitForce, // Force quit should always work
		},
		textContexts: map[Context]bool{
			ContextGlobal:  true,
			ContextAuth:    true,
			ContextCompose: true,
			ContextSearch:  true,
		},
	}
}

// ValidateRegistry validates an entire registry
func (v *Validator) ValidateRegistry(registry *Registry) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	bindings := registry.snapshot()

	v.checkUnknownActions(bindings, result)
	v.checkReservedKeys(bindings, result)
	v.checkTextInputKeys(bindings, result)
	v.checkShadowing(bindings, result)

	return result
}

// ValidateConfig validates a configuration before applying it
func (v *Validator) ValidateConfig(config *Config) *ValidationResult {
	registry := NewDefaultRegistry()
	if err := ApplyConfig(registry, config); err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{Type: "invalid", Message: err.Error()}},
		}
	}
	return v.ValidateRegistry(registry)
}

// sortedKeys iterates a context's keys in a stable order
func sortedKeys(bindings map[string]Action) []string {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *Validator) checkUnknownActions(all map[Context]map[string]Action, result *ValidationResult) {
	for _, context := range Contexts {
		bindings := all[context]
		for _, key := range sortedKeys(bindings) {
			if !IsKnownAction(bindings[key]) {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "invalid",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("unknown action %q", bindings[key]),
				})
			}
		}
	}
}

// checkReservedKeys checks if any reserved keys have been rebound
func (v *Validator) checkReservedKeys(all map[Context]map[string]Action, result *ValidationResult) {
	for _, context := range Contexts {
		bindings := all[context]
		for _, key := range sortedKeys(bindings) {
			if keep, reserved := v.reservedKeys[key]; reserved && bindings[key] != keep {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:    "warning",
					Context: context,
					Key:     key,
					Message: "reserved key rebound (may cause issues)",
				})
			}
		}
	}
}

// checkTextInputKeys rejects printable keys where a text input is focused
func (v *Validator) checkTextInputKeys(all map[Context]map[string]Action, result *ValidationResult) {
	for _, context := range Contexts {
		if !v.textContexts[context] {
			continue
		}
		bindings := all[context]
		for _, key := range sortedKeys(bindings) {
			if isPrintable(key) {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "conflict",
					Context: context,
					Key:     key,
					Message: "printable key would be swallowed by text input",
				})
			}
		}
	}
}

// checkShadowing checks for context-specific bindings that shadow global bindings
func (v *Validator) checkShadowing(all map[Context]map[string]Action, result *ValidationResult) {
	globalBindings := all[ContextGlobal]
	if globalBindings == nil {
		return
	}

	for _, context := range Contexts {
		if context == ContextGlobal {
			continue
		}
		bindings := all[context]
		for _, key := range sortedKeys(bindings) {
			action := bindings[key]
			if globalAction, hasGlobal := globalBindings[key]; hasGlobal && action != globalAction {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:    "warning",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("shadows global binding (%s -> %s)", globalAction, action),
				})
			}
		}
	}
}

// isPrintable reports keys that type a character: single runes and the space bar
func isPrintable(key string) bool {
	return len([]rune(key)) == 1
}

// ValidateKey checks if a key string is valid
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	// Check for valid modifier combinations
	for _, mod := range []string{"ctrl+", "alt+", "shift+", "super+"} {
		if key == mod {
			return fmt.Errorf("modifier without key: %s", key)
		}
	}

	return nil
}
