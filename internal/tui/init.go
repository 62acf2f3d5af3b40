package tui

import (
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/config"
	"github.com/studiowebux/postcli/internal/keybinds"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/storage"
	"github.com/studiowebux/postcli/internal/workspace"
)

// RunOptions are the global flags the TUI honours
type RunOptions struct {
	APIURL string
	Debug  bool
}

// New creates a new TUI model over ws. A nil keys registry uses the defaults.
func New(ws *workspace.Workspace, settings *config.Settings, keys *keybinds.Registry, logger *slog.Logger) (Model, error) {
	if ws == nil {
		return Model{}, fmt.Errorf("workspace is required")
	}
	if settings == nil {
		settings = &config.Settings{}
	}
	if keys == nil {
		keys = keybinds.NewDefaultRegistry()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	m := Model{
		ws:           ws,
		keys:         keys,
		settings:     settings,
		logger:       logger,
		mode:         ModeAuth,
		focusedPanel: panelURL,
		responseView: viewport.New(80, 20),
		historyView:  viewport.New(40, 10),
		helpView:     viewport.New(80, 20),
		copyText:     clipboard.WriteAll,
	}

	m.usernameInput = textinput.New()
	m.usernameInput.Placeholder = "username"
	m.usernameInput.Prompt = "> "

	m.passwordInput = textinput.New()
	m.passwordInput.Placeholder = "password"
	m.passwordInput.Prompt = "> "
	m.passwordInput.EchoMode = textinput.EchoPassword
	m.passwordInput.EchoCharacter = '•'

	m.urlInput = textinput.New()
	m.urlInput.Placeholder = "https://api.example.com/resource"
	m.urlInput.Prompt = "> "

	m.headersInput = textarea.New()
	m.headersInput.Placeholder = `{"Content-Type": "application/json"}`
	m.headersInput.ShowLineNumbers = false
	m.headersInput.SetHeight(HeadersEditorHeight)

	m.bodyInput = textarea.New()
	m.bodyInput.Placeholder = `{"key": "value"}`
	m.bodyInput.ShowLineNumbers = false
	m.bodyInput.SetHeight(BodyEditorHeight)

	m.searchInput = textinput.New()
	m.searchInput.Placeholder = "fuzzy search"
	m.searchInput.Prompt = "/"

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = styleTitle

	m.loadDraft()

	if ws.Authenticated() {
		m.mode = ModeMain
		m.setFocus(panelURL)
	} else {
		m.setAuthField(authFieldUsername)
	}

	m.updateResponseView()
	m.refreshHistoryView()
	return m, nil
}

// Run starts the TUI
func Run(opts RunOptions) error {
	// Initialize config
	if err := config.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.Load(config.ConfigFile)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file
	logger, closeLog, err := logging.OpenFile(config.LogFile, opts.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	store, closeStore := storage.Open(config.DatabasePath, logger)
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close session store", "error", err)
		}
	}()

	client := api.NewClient(
		settings.ResolveAPIURL(opts.APIURL),
		api.WithTimeout(settings.Timeout),
		api.WithLogger(logger.With("component", "api")),
	)

	ws := workspace.New(client, store, logger)
	if err := ws.Restore(); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	keys, err := keybinds.LoadOrDefault(keybinds.DefaultConfigPath(config.ConfigDir))
	if err != nil {
		logger.Warn("invalid keybinds config, using defaults where needed", "error", err)
	}

	m, err := New(ws, settings, keys, logger)
	if err != nil {
		return err
	}

	logger.Info("tui started", "backend", client.BaseURL(), "authenticated", ws.Authenticated())

	// Start TUI (pass pointer since Update uses pointer receiver)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	logger.Info("tui stopped")
	return nil
}
