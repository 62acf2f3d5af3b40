package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/postcli/internal/proxy"
	"github.com/studiowebux/postcli/internal/render"
	"github.com/studiowebux/postcli/internal/types"
)

func TestNew_StartsOnAuthForm(t *testing.T) {
	m := CreateTestModel(t)

	AssertModelField(t, "mode", m.mode, ModeAuth)
	AssertModelField(t, "authField", m.authField, authFieldUsername)
	AssertModelField(t, "usernameInput.Focused()", m.usernameInput.Focused(), true)
	AssertModelField(t, "registering", m.registering, false)
}

func TestNew_RestoredSessionStartsInMain(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)

	AssertModelField(t, "mode", m.mode, ModeMain)
	AssertModelField(t, "focusedPanel", m.focusedPanel, panelURL)
	AssertModelField(t, "urlInput.Focused()", m.urlInput.Focused(), true)
}

func TestNew_RequiresWorkspace(t *testing.T) {
	_, err := New(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestView_BeforeWindowSize(t *testing.T) {
	m := CreateTestModel(t)
	m.width = 0
	assert.Equal(t, "Initializing...", m.View())
}

func TestAuth_RegisterThroughForm(t *testing.T) {
	m := CreateTestModel(t)

	typeText(m, "alice")
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	AssertModelField(t, "authField", m.authField, authFieldPassword)
	typeText(m, "secret")

	press(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	AssertModelField(t, "registering", m.registering, true)
	assert.Contains(t, m.View(), "Register")

	run(t, m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))

	AssertModelField(t, "mode", m.mode, ModeMain)
	AssertModelField(t, "statusMsg", m.statusMsg, "User registered successfully")
	AssertModelField(t, "registering", m.registering, false)
	AssertModelField(t, "usernameInput", m.usernameInput.Value(), "")
	AssertModelField(t, "passwordInput", m.passwordInput.Value(), "")
	AssertModelField(t, "authPending", m.authPending, false)
	assert.True(t, m.ws.Authenticated())
	assert.Contains(t, m.View(), "User: alice")
}

func TestAuth_LoginFailureStaysOnForm(t *testing.T) {
	m := CreateTestModel(t)

	m.usernameInput.SetValue("nobody")
	m.passwordInput.SetValue("wrong")
	run(t, m, m.submitAuth())

	AssertModelField(t, "mode", m.mode, ModeAuth)
	AssertModelField(t, "AuthMessage()", m.ws.AuthMessage(), "Invalid credentials")
	assert.Contains(t, m.View(), "Invalid credentials")
	assert.False(t, m.ws.Authenticated())
}

func TestAuth_IgnoresSubmitWhilePending(t *testing.T) {
	m := CreateTestModel(t)

	first := m.submitAuth()
	require.NotNil(t, first)
	assert.Nil(t, m.submitAuth(), "second submit should be ignored")

	m.Update(first())
	AssertModelField(t, "authPending", m.authPending, false)
}

func TestAuth_GlobalActionsNeedSession(t *testing.T) {
	m := CreateTestModel(t)

	assert.Nil(t, press(m, tea.KeyMsg{Type: tea.KeyCtrlY}), "copy must not run from the auth form")
	assert.Nil(t, press(m, tea.KeyMsg{Type: tea.KeyCtrlL}))
	assert.Nil(t, press(m, tea.KeyMsg{Type: tea.KeyCtrlR}))
	AssertModelField(t, "mode", m.mode, ModeAuth)
}

func TestSend_ShowsResponseAndRefreshesHistory(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	target := testTarget(t)

	typeText(m, target.URL+"/alpha")
	AssertModelField(t, "draft URL", m.ws.Draft().URL, target.URL+"/alpha")

	msg := run(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))
	done, ok := msg.(requestDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	AssertModelField(t, "focusedPanel", m.focusedPanel, panelResponse)
	AssertModelField(t, "statusMsg", m.statusMsg, "Request completed (200)")
	assert.Contains(t, m.responseView.View(), "Status: 200")
	assert.Contains(t, m.responseView.View(), "hello")

	awaitRefresh(t, m)
	require.Len(t, m.historyEntries, 1)
	assert.Equal(t, target.URL+"/alpha", m.historyEntries[0].URL)
}

func TestSend_InvalidHeadersKeepsPreviousResponse(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	target := testTarget(t)

	m.urlInput.SetValue(target.URL)
	m.headersInput.SetValue("{not json")
	run(t, m, m.send())

	AssertModelField(t, "errorMsg", m.errorMsg, "Error parsing Headers JSON. Please ensure it's valid JSON.")
	assert.Nil(t, m.ws.Invoker().Outcome())
	assert.Contains(t, m.responseView.View(), "Error parsing Headers JSON")
}

func TestHandleRequestDone(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)

	assert.Nil(t, m.handleRequestDone(requestDoneMsg{err: proxy.ErrSessionChanged}))
	AssertModelField(t, "errorMsg", m.errorMsg, "")

	m.handleRequestDone(requestDoneMsg{err: proxy.ErrInFlight})
	AssertModelField(t, "statusMsg", m.statusMsg, "A request is already in progress")

	m.ws.Logout()
	m.handleRequestDone(requestDoneMsg{err: errors.New("boom")})
	AssertModelField(t, "mode", m.mode, ModeAuth)
}

func TestSelectEntry_HydratesComposer(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	target := testTarget(t)

	m.urlInput.SetValue(target.URL + "/created")
	m.cycleMethod() // POST
	m.bodyInput.SetValue(`{"name":"x"}`)
	run(t, m, m.send())
	awaitRefresh(t, m)

	// Start from a clean composer
	m.urlInput.SetValue("")
	m.bodyInput.SetValue("")
	m.syncDraft()

	m.setFocus(panelHistory)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	AssertModelField(t, "urlInput", m.urlInput.Value(), target.URL+"/created")
	AssertModelField(t, "draft method", m.ws.Draft().Method, types.MethodPost)
	assert.Contains(t, m.bodyInput.Value(), `"name": "x"`)
	AssertModelField(t, "focusedPanel", m.focusedPanel, panelURL)
	AssertModelField(t, "statusMsg", m.statusMsg, "Loaded POST "+target.URL+"/created")
}

func TestSelectEntry_EmptyHistory(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	m.setFocus(panelHistory)

	assert.Nil(t, press(m, tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Contains(t, m.historyView.View(), render.EmptyHistory)
}

func TestLogout_ReturnsToAuth(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	m.searchQuery = "old"

	press(m, tea.KeyMsg{Type: tea.KeyCtrlL})

	AssertModelField(t, "mode", m.mode, ModeAuth)
	AssertModelField(t, "searchQuery", m.searchQuery, "")
	assert.False(t, m.ws.Authenticated())
	assert.Empty(t, m.historyEntries)
	assert.Contains(t, m.View(), "Logged out successfully.")
}

func TestSearch_FiltersHistory(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	target := testTarget(t)

	for _, path := range []string{"/alpha", "/beta"} {
		m.urlInput.SetValue(target.URL + path)
		run(t, m, m.send())
		awaitRefresh(t, m)
	}
	require.Len(t, m.historyEntries, 2)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlF})
	AssertModelField(t, "mode", m.mode, ModeSearch)

	typeText(m, "beta")
	AssertModelField(t, "searchQuery", m.searchQuery, "beta")
	require.Len(t, m.historyEntries, 1)
	assert.True(t, strings.HasSuffix(m.historyEntries[0].URL, "/beta"))

	// Enter keeps the filter
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	AssertModelField(t, "mode", m.mode, ModeMain)
	assert.Len(t, m.historyEntries, 1)

	// Esc drops it
	press(m, runes("/"))
	AssertModelField(t, "mode", m.mode, ModeSearch)
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	AssertModelField(t, "searchQuery", m.searchQuery, "")
	assert.Len(t, m.historyEntries, 2)
}

func TestHistoryNavigation_StaysInBounds(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	target := testTarget(t)

	for _, path := range []string{"/a", "/b", "/c"} {
		m.urlInput.SetValue(target.URL + path)
		run(t, m, m.send())
		awaitRefresh(t, m)
	}

	m.setFocus(panelHistory)
	press(m, runes("k"))
	AssertModelField(t, "historyIndex", m.historyIndex, 0)

	press(m, runes("j"))
	press(m, runes("j"))
	press(m, runes("j"))
	AssertModelField(t, "historyIndex", m.historyIndex, 2)

	press(m, runes("g"))
	AssertModelField(t, "historyIndex", m.historyIndex, 0)
	press(m, runes("G"))
	AssertModelField(t, "historyIndex", m.historyIndex, 2)
}

func TestCopyResponse(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	target := testTarget(t)

	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m.copyResponse()
	AssertModelField(t, "errorMsg", m.errorMsg, "No response to copy")

	m.urlInput.SetValue(target.URL + "/copy")
	run(t, m, m.send())
	awaitRefresh(t, m)

	press(m, runes("y"))
	assert.Contains(t, copied, `"title": "hello"`)
	AssertModelField(t, "statusMsg", m.statusMsg, "Response body copied to clipboard")

	m.copyText = func(string) error { return errors.New("no clipboard") }
	m.copyResponse()
	AssertModelField(t, "errorMsg", m.errorMsg, "Failed to copy: no clipboard")
}

func TestMethodPanel_CyclesMethod(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	AssertModelField(t, "focusedPanel", m.focusedPanel, panelMethod)

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	AssertModelField(t, "method", m.ws.Draft().Method, types.MethodPost)
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	AssertModelField(t, "method", m.ws.Draft().Method, types.MethodPut)
	assert.Contains(t, m.View(), "PUT")
}

func TestCycleFocus_Wraps(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)

	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	AssertModelField(t, "focusedPanel", m.focusedPanel, panelHistory)

	for range panelOrder {
		m.cycleFocus(1)
	}
	AssertModelField(t, "focusedPanel", m.focusedPanel, panelHistory)

	m.setFocus(panelBody)
	AssertModelField(t, "bodyInput.Focused()", m.bodyInput.Focused(), true)
	AssertModelField(t, "urlInput.Focused()", m.urlInput.Focused(), false)
}

func TestHelp_OpensAndRestoresMode(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)
	m.setFocus(panelResponse)

	press(m, runes("?"))
	AssertModelField(t, "mode", m.mode, ModeHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	assert.Contains(t, m.View(), "Send request")

	// Other actions are inert while help is open
	assert.Nil(t, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	AssertModelField(t, "mode", m.mode, ModeMain)
}

func TestQuitKeys(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)

	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// q quits from a viewer panel but types into the URL
	m.setFocus(panelURL)
	press(m, runes("q"))
	assert.Equal(t, "q", m.urlInput.Value())

	m.setFocus(panelResponse)
	cmd = press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMessages_TimeoutAndTruncation(t *testing.T) {
	m := CreateTestModel(t)

	assert.Nil(t, m.setStatusMessage("done"))

	m.settings.MessageTimeout = time.Second
	assert.NotNil(t, m.setErrorMessage("failed"))

	long := strings.Repeat("x", MaxMessageLength+20)
	m.setErrorMessage(long)
	AssertModelField(t, "fullErrorMsg", m.fullErrorMsg, long)
	AssertModelField(t, "len(errorMsg)", len(m.errorMsg), MaxMessageLength)
	assert.True(t, strings.HasSuffix(m.errorMsg, "..."))

	// Multibyte messages are cut on rune boundaries
	accented := strings.Repeat("é", MaxMessageLength+5)
	m.setErrorMessage(accented)
	assert.True(t, utf8.ValidString(m.errorMsg))
	AssertModelField(t, "runes in errorMsg", utf8.RuneCountInString(m.errorMsg), MaxMessageLength)
	assert.Equal(t, "ééé", truncate("ééé"))

	m.Update(clearErrorMsg{})
	AssertModelField(t, "errorMsg", m.errorMsg, "")
	m.Update(clearStatusMsg{})
	AssertModelField(t, "statusMsg", m.statusMsg, "")
}

func TestHistoryLoaded_ErrorShowsMessage(t *testing.T) {
	m := CreateAuthenticatedTestModel(t)

	AssertNoError(t, m.ws.FetchHistory(context.Background()))
	m.Update(historyLoadedMsg{})
	AssertModelField(t, "errorMsg", m.errorMsg, "")
	AssertModelField(t, "mode", m.mode, ModeMain)
}
