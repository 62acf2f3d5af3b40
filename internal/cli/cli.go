// Package cli implements the non-interactive postcli commands on top of the
// same workspace the TUI drives.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/config"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/storage"
	"github.com/studiowebux/postcli/internal/workspace"
)

// Options are the global flags shared by every command
type Options struct {
	APIURL string
	Debug  bool
}

// App runs one CLI command against a workspace
type App struct {
	ws       *workspace.Workspace
	settings *config.Settings
	out      io.Writer
	errOut   io.Writer

	// interactive allows prompting on stdin
	interactive bool
	// colour enables ANSI status colours and body highlighting on out
	colour bool

	promptCredentials func(opts *AuthOptions) error
	selectEntry       func(ws *workspace.Workspace) (string, error)
	copyText          func(text string) error

	closers []func() error
}

// NewApp builds an App writing to out and errOut. Prompts and colours are off;
// Open enables them when the standard streams are terminals.
func NewApp(ws *workspace.Workspace, settings *config.Settings, out, errOut io.Writer) *App {
	if settings == nil {
		settings = &config.Settings{}
	}
	return &App{
		ws:                ws,
		settings:          settings,
		out:               out,
		errOut:            errOut,
		promptCredentials: promptCredentials,
		selectEntry:       selectHistoryEntry,
		copyText:          copyToClipboard,
	}
}

// Open initializes the configuration directory, the persisted session and the
// backend client, and returns an App bound to the process streams.
func Open(opts Options) (*App, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.Load(config.ConfigFile)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level, Output: os.Stderr})

	store, closeStore := storage.Open(config.DatabasePath, logger)
	closers := []func() error{closeStore}

	client := api.NewClient(
		settings.ResolveAPIURL(opts.APIURL),
		api.WithTimeout(settings.Timeout),
		api.WithLogger(logger.With("component", "api")),
	)
	logger.Debug("backend resolved", "url", client.BaseURL())

	ws := workspace.New(client, store, logger)
	if err := ws.Restore(); err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	app := NewApp(ws, settings, os.Stdout, os.Stderr)
	app.interactive = isTerminal(os.Stdin)
	app.colour = isTerminal(os.Stdout)
	app.closers = closers
	return app, nil
}

// Close releases the session store
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Workspace returns the workspace the App drives
func (a *App) Workspace() *workspace.Workspace {
	return a.ws
}

// outputFormat picks the explicit format, then the configured one. Piped
// output defaults to the bare body.
func (a *App) outputFormat(explicit string) string {
	if f := strings.TrimSpace(explicit); f != "" {
		return f
	}
	if a.settings.Output != "" {
		return a.settings.Output
	}
	if !a.colour {
		return formatBody
	}
	return formatText
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// requireSession fails with the same message the TUI shows when logged out
func (a *App) requireSession(ctx context.Context) error {
	if !a.ws.Authenticated() {
		return errNotLoggedIn
	}
	return ctx.Err()
}

// isTerminal checks if f is attached to a terminal (not piped)
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
