package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/studiowebux/postcli/internal/keybinds"
)

// WriteDefaultKeybinds writes the default TUI bindings to path. An existing
// file is kept unless force is set.
func WriteDefaultKeybinds(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := keybinds.SaveConfig(keybinds.ExportDefaults(), path); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote default keybindings to %s\n", path)
	return nil
}

// CheckKeybinds validates the bindings file at path and prints the findings.
// Warnings alone do not fail the check.
func CheckKeybinds(w io.Writer, path string) error {
	cfg, err := keybinds.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "%s not found, the defaults are in use\n", path)
		return nil
	}
	if err != nil {
		return err
	}

	result := keybinds.NewValidator().ValidateConfig(cfg)
	fmt.Fprintln(w, result.String())
	if result.HasErrors() {
		return fmt.Errorf("%d keybinding error(s) in %s", len(result.Errors), path)
	}
	return nil
}
