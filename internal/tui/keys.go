package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/postcli/internal/keybinds"
)

// currentContext maps the mode and focused panel to a keybinds context
func (m *Model) currentContext() keybinds.Context {
	switch m.mode {
	case ModeAuth:
		return keybinds.ContextAuth
	case ModeSearch:
		return keybinds.ContextSearch
	case ModeHelp:
		return keybinds.ContextHelp
	}

	switch m.focusedPanel {
	case panelMethod:
		return keybinds.ContextMethod
	case panelResponse:
		return keybinds.ContextResponse
	case panelHistory:
		return keybinds.ContextHistory
	default:
		return keybinds.ContextCompose
	}
}

// handleKeyPress routes key presses based on current mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	// Match key to action using keybinds registry
	action, ok := m.keys.Match(m.currentContext(), msg.String())
	if ok && action == keybinds.ActionQuitForce {
		return tea.Quit
	}

	switch m.mode {
	case ModeAuth:
		return m.handleAuthKeys(msg, action, ok)
	case ModeSearch:
		return m.handleSearchKeys(msg, action, ok)
	case ModeHelp:
		return m.handleHelpKeys(action, ok)
	default:
		return m.handleMainKeys(msg, action, ok)
	}
}

// handleAuthKeys handles the login/register form
func (m *Model) handleAuthKeys(msg tea.KeyMsg, action keybinds.Action, ok bool) tea.Cmd {
	if ok {
		switch action {
		case keybinds.ActionSubmit:
			return m.submitAuth()
		case keybinds.ActionToggleRegister:
			m.toggleRegister()
			return nil
		case keybinds.ActionSwitchFocus, keybinds.ActionFocusPrev:
			// Two fields, so both directions land on the other one
			m.setAuthField(1 - m.authField)
			return nil
		case keybinds.ActionOpenHelp:
			m.openHelp()
			return nil
		}
		// Other global actions need a session
		return nil
	}

	return m.updateFocused(msg)
}

// handleSearchKeys handles typing in the history search box
func (m *Model) handleSearchKeys(msg tea.KeyMsg, action keybinds.Action, ok bool) tea.Cmd {
	if ok {
		switch action {
		case keybinds.ActionCloseSearch:
			m.closeSearch(false)
		case keybinds.ActionCloseModal:
			m.closeSearch(true)
		case keybinds.ActionNavigateUp:
			m.moveHistory(-1)
		case keybinds.ActionNavigateDown:
			m.moveHistory(1)
		}
		return nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applySearch()
	return cmd
}

// handleHelpKeys handles the key help screen
func (m *Model) handleHelpKeys(action keybinds.Action, ok bool) tea.Cmd {
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionCloseModal:
		m.mode = m.prevMode
	case keybinds.ActionNavigateUp:
		m.helpView.ScrollUp(1)
	case keybinds.ActionNavigateDown:
		m.helpView.ScrollDown(1)
	case keybinds.ActionPageUp:
		m.helpView.PageUp()
	case keybinds.ActionPageDown:
		m.helpView.PageDown()
	case keybinds.ActionGoToTop:
		m.helpView.GotoTop()
	case keybinds.ActionGoToBottom:
		m.helpView.GotoBottom()
	}
	return nil
}

// handleMainKeys handles the composer, response and history panels
func (m *Model) handleMainKeys(msg tea.KeyMsg, action keybinds.Action, ok bool) tea.Cmd {
	if !ok {
		cmd := m.updateFocused(msg)
		if m.isComposing() {
			m.syncDraft()
		}
		return cmd
	}

	switch action {
	case keybinds.ActionQuit:
		return tea.Quit
	case keybinds.ActionOpenHelp:
		m.openHelp()
	case keybinds.ActionSwitchFocus:
		m.cycleFocus(1)
	case keybinds.ActionFocusPrev:
		m.cycleFocus(-1)
	case keybinds.ActionSend:
		return m.send()
	case keybinds.ActionCycleMethod:
		m.cycleMethod()
	case keybinds.ActionCopy:
		return m.copyResponse()
	case keybinds.ActionRefreshHistory:
		m.refreshHistoryView()
		return m.fetchHistory()
	case keybinds.ActionSelectEntry:
		return m.selectEntry()
	case keybinds.ActionOpenSearch:
		return m.openSearch()
	case keybinds.ActionLogout:
		return m.logout()
	case keybinds.ActionNavigateUp:
		m.navigate(-1)
	case keybinds.ActionNavigateDown:
		m.navigate(1)
	case keybinds.ActionPageUp:
		m.page(-1)
	case keybinds.ActionPageDown:
		m.page(1)
	case keybinds.ActionGoToTop:
		m.jump(false)
	case keybinds.ActionGoToBottom:
		m.jump(true)
	}
	return nil
}

// isComposing reports whether a text editor has focus
func (m *Model) isComposing() bool {
	switch m.focusedPanel {
	case panelURL, panelHeaders, panelBody:
		return true
	}
	return false
}

// openHelp shows the key help, remembering where to return
func (m *Model) openHelp() {
	m.prevMode = m.mode
	m.mode = ModeHelp
	m.updateHelpView()
	m.helpView.GotoTop()
}

// navigate moves the history cursor or scrolls the response
func (m *Model) navigate(delta int) {
	if m.focusedPanel == panelHistory {
		m.moveHistory(delta)
		return
	}
	if delta < 0 {
		m.responseView.ScrollUp(-delta)
	} else {
		m.responseView.ScrollDown(delta)
	}
}

func (m *Model) page(delta int) {
	if m.focusedPanel == panelHistory {
		step := m.historyView.Height
		if step < 1 {
			step = 1
		}
		m.moveHistory(delta * step)
		return
	}
	if delta < 0 {
		m.responseView.PageUp()
	} else {
		m.responseView.PageDown()
	}
}

func (m *Model) jump(bottom bool) {
	if m.focusedPanel == panelHistory {
		if bottom {
			m.historyIndex = len(m.historyEntries) - 1
		} else {
			m.historyIndex = 0
		}
		m.refreshHistoryView()
		return
	}
	if bottom {
		m.responseView.GotoBottom()
	} else {
		m.responseView.GotoTop()
	}
}

// moveHistory moves the history cursor, staying within the list
func (m *Model) moveHistory(delta int) {
	if len(m.historyEntries) == 0 {
		return
	}
	m.historyIndex += delta
	if m.historyIndex < 0 {
		m.historyIndex = 0
	}
	if m.historyIndex >= len(m.historyEntries) {
		m.historyIndex = len(m.historyEntries) - 1
	}
	m.refreshHistoryView()
}

// cycleFocus moves focus through the main panels
func (m *Model) cycleFocus(delta int) {
	idx := 0
	for i, p := range panelOrder {
		if p == m.focusedPanel {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(panelOrder)) % len(panelOrder)
	m.setFocus(panelOrder[idx])
}

// setFocus focuses one panel and blurs the editors that lost focus
func (m *Model) setFocus(panel string) {
	m.focusedPanel = panel

	m.urlInput.Blur()
	m.headersInput.Blur()
	m.bodyInput.Blur()

	switch panel {
	case panelURL:
		m.urlInput.Focus()
	case panelHeaders:
		m.headersInput.Focus()
	case panelBody:
		m.bodyInput.Focus()
	}
}

// setAuthField focuses one field of the auth form
func (m *Model) setAuthField(field int) {
	m.authField = field
	if field == authFieldPassword {
		m.usernameInput.Blur()
		m.passwordInput.Focus()
		return
	}
	m.passwordInput.Blur()
	m.usernameInput.Focus()
}

// updateFocused forwards a message to the component that has focus
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch m.mode {
	case ModeAuth:
		if m.authField == authFieldPassword {
			m.passwordInput, cmd = m.passwordInput.Update(msg)
		} else {
			m.usernameInput, cmd = m.usernameInput.Update(msg)
		}
		return cmd
	case ModeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
		return cmd
	case ModeHelp:
		return nil
	}

	switch m.focusedPanel {
	case panelURL:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case panelHeaders:
		m.headersInput, cmd = m.headersInput.Update(msg)
	case panelBody:
		m.bodyInput, cmd = m.bodyInput.Update(msg)
	case panelResponse:
		m.responseView, cmd = m.responseView.Update(msg)
	}
	return cmd
}
