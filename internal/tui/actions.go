package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/postcli/internal/composer"
	"github.com/studiowebux/postcli/internal/render"
)

// fetchHistory reloads the history list in the background
func (m *Model) fetchHistory() tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		return historyLoadedMsg{err: ws.FetchHistory(context.Background())}
	}
}

// waitForRefresh blocks on the next post-send history refresh
func (m *Model) waitForRefresh() tea.Cmd {
	ch := m.ws.Invoker().Refreshes()
	return func() tea.Msg {
		return refreshDoneMsg{result: <-ch}
	}
}

// submitAuth logs in or registers with the form values
func (m *Model) submitAuth() tea.Cmd {
	if m.authPending {
		return nil
	}
	m.authPending = true

	ws := m.ws
	register := m.registering
	username := strings.TrimSpace(m.usernameInput.Value())
	password := m.passwordInput.Value()

	call := ws.Login
	if register {
		call = ws.Register
	}

	return func() tea.Msg {
		msg, err := call(context.Background(), username, password)
		return authDoneMsg{register: register, message: msg, err: err}
	}
}

// toggleRegister switches the form between login and register
func (m *Model) toggleRegister() {
	m.registering = !m.registering
}

// send submits the current draft
func (m *Model) send() tea.Cmd {
	if m.ws.Invoker().InFlight() {
		return m.setStatusMessage("A request is already in progress")
	}

	m.syncDraft()
	ws := m.ws
	return func() tea.Msg {
		outcome, err := ws.Send(context.Background())
		return requestDoneMsg{outcome: outcome, err: err}
	}
}

// syncDraft copies the editors into the workspace draft
func (m *Model) syncDraft() {
	url := m.urlInput.Value()
	headers := m.headersInput.Value()
	body := m.bodyInput.Value()
	m.ws.EditDraft(func(d *composer.Draft) {
		d.SetURL(url)
		d.SetHeadersText(headers)
		d.SetBodyText(body)
	})
}

// loadDraft copies the workspace draft into the editors
func (m *Model) loadDraft() {
	d := m.ws.Draft()
	m.urlInput.SetValue(d.URL)
	m.headersInput.SetValue(d.HeadersText)
	m.bodyInput.SetValue(d.BodyText)
}

// cycleMethod moves the draft to the next HTTP method
func (m *Model) cycleMethod() {
	m.ws.EditDraft(func(d *composer.Draft) {
		d.SetMethod(d.Method.Next())
	})
}

// selectEntry loads the highlighted history entry into the composer and
// shows its stored response. No request is made.
func (m *Model) selectEntry() tea.Cmd {
	if m.historyIndex < 0 || m.historyIndex >= len(m.historyEntries) {
		return nil
	}

	entry, err := m.ws.Select(m.historyEntries[m.historyIndex].ID)
	var methodErr *composer.UnsupportedMethodError
	if err != nil && !errors.As(err, &methodErr) {
		return m.setErrorMessage(err.Error())
	}

	m.loadDraft()
	m.updateResponseView()
	m.setFocus(panelURL)
	if methodErr != nil {
		return m.setErrorMessage(methodErr.Error())
	}
	return m.setStatusMessage("Loaded " + strings.ToUpper(entry.Method) + " " + entry.URL)
}

// logout ends the session and returns to the auth form
func (m *Model) logout() tea.Cmd {
	m.ws.Logout()
	m.enterAuth()
	return nil
}

// copyResponse copies the response body to the clipboard
func (m *Model) copyResponse() tea.Cmd {
	outcome := m.ws.Invoker().Outcome()
	if outcome == nil {
		return m.setErrorMessage("No response to copy")
	}

	if err := m.copyText(render.JSON(outcome.Data)); err != nil {
		return m.setErrorMessage("Failed to copy: " + err.Error())
	}
	return m.setStatusMessage("Response body copied to clipboard")
}

// enterAuth shows the auth form, keeping the typed username
func (m *Model) enterAuth() {
	m.mode = ModeAuth
	m.passwordInput.SetValue("")
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.statusMsg, m.fullStatusMsg = "", ""
	m.errorMsg, m.fullErrorMsg = "", ""
	m.setAuthField(authFieldUsername)
	m.refreshHistoryView()
}

// enterMain shows the main view after a successful login or register
func (m *Model) enterMain() {
	m.mode = ModeMain
	m.registering = false
	m.usernameInput.SetValue("")
	m.passwordInput.SetValue("")
	m.usernameInput.Blur()
	m.passwordInput.Blur()
	m.setFocus(panelURL)
}

// openSearch starts filtering the history list
func (m *Model) openSearch() tea.Cmd {
	m.mode = ModeSearch
	m.setFocus(panelHistory)
	m.searchInput.SetValue(m.searchQuery)
	m.searchInput.CursorEnd()
	return m.searchInput.Focus()
}

// closeSearch leaves search mode; clear drops the filter
func (m *Model) closeSearch(clear bool) {
	m.mode = ModeMain
	m.searchInput.Blur()
	if clear {
		m.searchQuery = ""
		m.searchInput.SetValue("")
	}
	m.refreshHistoryView()
}

// applySearch re-runs the fuzzy search after the query changed
func (m *Model) applySearch() {
	if q := m.searchInput.Value(); q != m.searchQuery {
		m.searchQuery = q
		m.historyIndex = 0
	}
	m.refreshHistoryView()
}
