package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/postcli/internal/config"
	"github.com/studiowebux/postcli/internal/keybinds"
	"github.com/studiowebux/postcli/internal/proxy"
	"github.com/studiowebux/postcli/internal/types"
	"github.com/studiowebux/postcli/internal/workspace"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeAuth Mode = iota
	ModeMain
	ModeSearch
	ModeHelp
)

// Panels of the main view, in focus order
const (
	panelURL      = "url"
	panelMethod   = "method"
	panelHeaders  = "headers"
	panelBody     = "body"
	panelResponse = "response"
	panelHistory  = "history"
)

var panelOrder = []string{panelURL, panelMethod, panelHeaders, panelBody, panelResponse, panelHistory}

// Auth form fields
const (
	authFieldUsername = iota
	authFieldPassword
)

// Model represents the TUI state
type Model struct {
	// Core state
	ws       *workspace.Workspace
	keys     *keybinds.Registry
	settings *config.Settings
	logger   *slog.Logger
	mode     Mode
	prevMode Mode // restored when help closes

	// Auth form
	usernameInput textinput.Model
	passwordInput textinput.Model
	authField     int
	registering   bool
	authPending   bool

	// Composer
	urlInput     textinput.Model
	headersInput textarea.Model
	bodyInput    textarea.Model

	// Response, history and help
	responseView viewport.Model
	historyView  viewport.Model
	helpView     viewport.Model
	spinner      spinner.Model

	// History list state
	historyEntries []types.HistoryEntry // entries shown (all, or the search matches)
	historyIndex   int
	searchInput    textinput.Model
	searchQuery    string

	// UI state
	width         int
	height        int
	statusMsg     string
	errorMsg      string // Truncated error for footer
	fullErrorMsg  string // Full error message
	fullStatusMsg string // Full status message
	focusedPanel  string

	copyText func(string) error
}

// Init starts the cursor blink, the spinner and the refresh listener, and
// loads history for a restored session
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, m.waitForRefresh()}
	if m.ws.Authenticated() {
		cmds = append(cmds, m.fetchHistory())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewport()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)

	case authDoneMsg:
		m.authPending = false
		if msg.err != nil {
			// The form shows the workspace's auth message
			m.logger.Debug("authentication failed", "register", msg.register, "error", msg.err)
			break
		}
		m.enterMain()
		m.refreshHistoryView()
		cmd = m.setStatusMessage(msg.message)

	case historyLoadedMsg:
		m.refreshHistoryView()
		if msg.err != nil {
			if !m.ws.Authenticated() {
				m.enterAuth()
				break
			}
			cmd = m.setErrorMessage(m.ws.History().Status().Err)
		}

	case requestDoneMsg:
		cmd = m.handleRequestDone(msg)

	case refreshDoneMsg:
		m.refreshHistoryView()
		if msg.result.Err != nil && !m.ws.Authenticated() {
			m.enterAuth()
		}
		// Keep listening for the next send
		cmd = m.waitForRefresh()

	case clearStatusMsg:
		m.statusMsg = ""
		m.fullStatusMsg = ""

	case clearErrorMsg:
		m.errorMsg = ""
		m.fullErrorMsg = ""

	case errorMsg:
		cmd = m.setErrorMessage(string(msg))

	default:
		// Cursor blink and other component messages
		cmd = m.updateFocused(msg)
	}

	return m, cmd
}

// handleRequestDone applies the result of a send
func (m *Model) handleRequestDone(msg requestDoneMsg) tea.Cmd {
	m.updateResponseView()

	switch {
	case msg.err == nil:
		m.errorMsg = ""
		m.fullErrorMsg = ""
		m.setFocus(panelResponse)
		return m.setStatusMessage(fmt.Sprintf("Request completed (%d)", msg.outcome.Status))

	case errors.Is(msg.err, proxy.ErrSessionChanged):
		// Answer for a session that no longer exists
		return nil

	case errors.Is(msg.err, proxy.ErrInFlight):
		return m.setStatusMessage("A request is already in progress")

	case !m.ws.Authenticated():
		m.enterAuth()
		return nil

	default:
		return m.setErrorMessage(m.ws.Invoker().Status().Err)
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.mode {
	case ModeAuth:
		return m.renderAuth()
	case ModeHelp:
		return m.renderHelp()
	default:
		return m.renderMain()
	}
}

// Custom message types
type authDoneMsg struct {
	register bool
	message  string
	err      error
}

type historyLoadedMsg struct {
	err error
}

type requestDoneMsg struct {
	outcome *types.RequestOutcome
	err     error
}

type refreshDoneMsg struct {
	result proxy.RefreshResult
}

type clearStatusMsg struct{}
type clearErrorMsg struct{}

type errorMsg string

// truncate shortens a footer message to MaxMessageLength runes
func truncate(msg string) string {
	runes := []rune(msg)
	if len(runes) > MaxMessageLength {
		return string(runes[:MaxMessageLength-3]) + "..."
	}
	return msg
}

// Helper methods for setting messages with optional timeout
func (m *Model) setStatusMessage(msg string) tea.Cmd {
	m.fullStatusMsg = msg
	m.statusMsg = truncate(msg)

	if timeout := m.settings.MessageTimeout; timeout > 0 {
		return tea.Tick(timeout, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})
	}
	return nil
}

func (m *Model) setErrorMessage(msg string) tea.Cmd {
	m.fullErrorMsg = msg
	m.errorMsg = truncate(msg)

	if timeout := m.settings.MessageTimeout; timeout > 0 {
		return tea.Tick(timeout, func(time.Time) tea.Msg {
			return clearErrorMsg{}
		})
	}
	return nil
}
