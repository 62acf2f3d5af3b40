/*
Package keybinds provides customizable keyboard binding management for the TUI.

# Contexts

Keys are matched in the focused context first, then in the global context.
Global bindings also reach the text inputs (URL, headers, body and the auth
form), so they are limited to control keys; the validator rejects printable
keys in those contexts.

# Configuration File Format

Bindings are read from keybinds.json in the configuration directory. Each
section maps an action to a comma-separated list of keys, replacing the
default keys of that action:

	{
	  "version": "1.0",
	  "global": {
	    "send": "ctrl+s,ctrl+e"
	  },
	  "history": {
	    "select_entry": "enter,o"
	  }
	}

# Example Usage

	registry, err := LoadOrDefault(DefaultConfigPath(config.ConfigDir))
	if err != nil {
		// registry still holds the defaults plus every valid override
	}

	if action, ok := registry.Match(ContextHistory, "enter"); ok {
		// Handle action
	}
*/
package keybinds
