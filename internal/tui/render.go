package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/postcli/internal/keybinds"
	"github.com/studiowebux/postcli/internal/render"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"} // Dark green / Bright green
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"} // Dark red / Bright red
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"} // Dark goldenrod / Yellow
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"} // Dark gray / Light gray
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"} // Dark cyan / Cyan
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleMethod = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)
)

// layout holds the outer widths of the two columns
type layout struct {
	sidebarWidth  int
	responseWidth int
}

// computeLayout splits the width between the sidebar and the response.
// MUST match the sizes set in updateViewport.
func (m *Model) computeLayout() layout {
	sidebarWidth := max(MinSidebarWidth, m.width*45/100)
	if m.width < 100 {
		sidebarWidth = m.width / 2
	}
	return layout{sidebarWidth: sidebarWidth, responseWidth: m.width - sidebarWidth}
}

// innerWidth is the content width of a bordered, padded box
func innerWidth(outer int) int {
	return max(1, outer-ViewportBorderWidth-ViewportPaddingHorizontal)
}

// composerHeight is the content height of the request box
func composerHeight() int {
	return ComposerChromeLines + HeadersEditorHeight + BodyEditorHeight
}

// historyHeight is the content height of the history box
func (m *Model) historyHeight() int {
	avail := m.height - StatusBarHeight
	return max(3, avail-(composerHeight()+ViewportBorderWidth)-ViewportBorderWidth)
}

// box renders content in a rounded border, green when focused
func box(content string, width, height int, focused bool) string {
	border := colorGray
	if focused {
		border = colorGreen
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width - ViewportBorderWidth).
		Height(height).
		Render(content)
}

// renderAuth renders the login/register form
func (m *Model) renderAuth() string {
	title := "Login"
	submitLabel := "Login"
	toggleHint := "No account? Switch to register"
	if m.registering {
		title = "Register"
		submitLabel = "Register"
		toggleHint = "Have an account? Switch to login"
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("postcli - "+title) + "\n\n")
	b.WriteString("Username\n" + m.usernameInput.View() + "\n\n")
	b.WriteString("Password\n" + m.passwordInput.View() + "\n\n")

	if m.authPending {
		b.WriteString(m.spinner.View() + " " + submitLabel + "...\n")
	} else {
		b.WriteString(styleSubtle.Render("["+submitLabel+"]") + "\n")
	}

	if msg := m.ws.AuthMessage(); msg != "" {
		style := styleError
		if render.IsSuccessMessage(msg) {
			style = styleSuccess
		}
		b.WriteString("\n" + style.Render(msg) + "\n")
	}

	b.WriteString("\n" + m.shortHelp(keybinds.ContextAuth,
		keybinds.ActionSubmit,
		keybinds.ActionSwitchFocus,
		keybinds.ActionToggleRegister,
		keybinds.ActionQuitForce,
	))
	b.WriteString("\n" + styleSubtle.Render(toggleHint+" ("+m.keys.GetBindingString(keybinds.ContextAuth, keybinds.ActionToggleRegister)+")"))

	form := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(1, 2).
		Width(AuthFormWidth).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

// shortHelp renders a one-line key hint from the live bindings
func (m *Model) shortHelp(ctx keybinds.Context, actions ...keybinds.Action) string {
	bindings := make([]key.Binding, 0, len(actions))
	for _, action := range actions {
		keys := m.keys.GetBinding(ctx, action)
		if len(keys) == 0 {
			continue
		}
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), strings.ToLower(keybinds.GetActionInfo(action).Description)),
		))
	}
	return help.New().ShortHelpView(bindings)
}

// renderMain renders the main TUI view (request + history sidebar, response panel)
func (m *Model) renderMain() string {
	l := m.computeLayout()
	avail := m.height - StatusBarHeight

	composing := m.isComposing() || m.focusedPanel == panelMethod
	composerBox := box(m.renderComposer(innerWidth(l.sidebarWidth)), l.sidebarWidth, composerHeight(), composing)
	historyBox := box(m.renderHistory(), l.sidebarWidth, m.historyHeight(), m.focusedPanel == panelHistory)
	sidebar := lipgloss.JoinVertical(lipgloss.Left, composerBox, historyBox)

	responseBox := box(m.renderResponse(), l.responseWidth, avail-ViewportBorderWidth, m.focusedPanel == panelResponse)

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, responseBox)

	return lipgloss.JoinVertical(lipgloss.Left, mainView, m.renderStatusBar())
}

// renderComposer renders the URL, method, headers and body editors
func (m *Model) renderComposer(width int) string {
	draft := m.ws.Draft()

	label := func(text, panel string) string {
		if m.focusedPanel == panel {
			return styleTitle.Render(text)
		}
		return styleSubtle.Render(text)
	}

	method := styleMethod.Render(string(draft.Method))
	if m.focusedPanel == panelMethod {
		method = styleSelected.Render(" " + string(draft.Method) + " ")
	}

	bodyLabel := "Body (JSON)"
	if !draft.Method.HasBody() {
		bodyLabel += " - not sent with " + string(draft.Method)
	}

	lines := []string{
		label("URL", panelURL),
		m.urlInput.View(),
		"",
		label("Method: ", panelMethod) + method,
		"",
		label("Headers (JSON)", panelHeaders),
		m.headersInput.View(),
		"",
		label(truncateWidth(bodyLabel, width), panelBody),
		m.bodyInput.View(),
	}
	return strings.Join(lines, "\n")
}

// renderHistory renders the history title and list viewport
func (m *Model) renderHistory() string {
	title := styleTitle.Render("History")
	if m.searchQuery != "" || m.mode == ModeSearch {
		title += styleWarning.Render(fmt.Sprintf("  %d match(es)", len(m.historyEntries)))
	}
	if m.ws.History().Status().Loading {
		title += " " + m.spinner.View()
	}
	return title + "\n" + m.historyView.View()
}

// renderResponse renders the response title and viewport
func (m *Model) renderResponse() string {
	title := styleTitle.Render("Response")
	if m.ws.Invoker().Status().Loading {
		title += " " + m.spinner.View() + " Sending..."
	}
	return title + "\n" + m.responseView.View()
}

// renderStatusBar renders the status bar at the bottom
func (m *Model) renderStatusBar() string {
	left := "Not logged in"
	if sess := m.ws.Session().Current(); sess.Valid() {
		left = fmt.Sprintf("User: %s", sess.Username)
	}

	right := ""
	switch {
	case m.mode == ModeSearch:
		right = "Search: " + m.searchInput.View()
	case m.errorMsg != "":
		right = styleError.Render(m.errorMsg)
	case m.statusMsg != "":
		if render.IsSuccessMessage(m.statusMsg) || strings.Contains(m.statusMsg, "copied") ||
			strings.HasPrefix(m.statusMsg, "Request completed") {
			right = styleSuccess.Render(m.statusMsg)
		} else {
			right = m.statusMsg
		}
	default:
		right = styleSubtle.Render(fmt.Sprintf("%s: send | %s: switch panel | %s: help",
			m.keys.GetBindingString(keybinds.ContextGlobal, keybinds.ActionSend),
			m.keys.GetBindingString(keybinds.ContextGlobal, keybinds.ActionSwitchFocus),
			m.keys.GetBindingString(keybinds.ContextGlobal, keybinds.ActionOpenHelp)))
	}

	// Center spacing
	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}

	return left + strings.Repeat(" ", spacing) + right
}

// renderHelp renders the key help screen
func (m *Model) renderHelp() string {
	content := styleTitle.Render("postcli - Keyboard Shortcuts") + "\n\n" + m.helpView.View()
	footer := styleSubtle.Render("↑/↓: Scroll | " +
		m.keys.GetBindingString(keybinds.ContextHelp, keybinds.ActionCloseModal) + ": Close")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(0, 1).
		Width(m.width-ViewportBorderWidth).
		Render(content + "\n" + footer)
}

// updateHelpView rebuilds the help text from the live bindings
func (m *Model) updateHelpView() {
	var b strings.Builder
	for _, ctx := range keybinds.Contexts {
		bindings := m.keys.ListBindings(ctx)
		if len(bindings) == 0 {
			continue
		}

		b.WriteString(styleWarning.Render(strings.ToUpper(string(ctx))) + "\n")

		// Group keys per action, keeping the first-seen order
		var order []keybinds.Action
		keys := make(map[keybinds.Action][]string)
		for _, binding := range bindings {
			if _, seen := keys[binding.Action]; !seen {
				order = append(order, binding.Action)
			}
			keys[binding.Action] = append(keys[binding.Action], displayKey(binding.Key))
		}
		for _, action := range order {
			fmt.Fprintf(&b, "  %-22s %s\n", strings.Join(keys[action], ", "), keybinds.GetActionInfo(action).Description)
		}
		b.WriteString("\n")
	}
	m.helpView.SetContent(b.String())
}

// displayKey names keys that render as blanks
func displayKey(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

// updateViewport sizes every component to the window.
// MUST match the widths used in renderMain.
func (m *Model) updateViewport() {
	l := m.computeLayout()
	sidebarInner := innerWidth(l.sidebarWidth)
	responseInner := innerWidth(l.responseWidth)

	m.urlInput.Width = max(1, sidebarInner-lipgloss.Width(m.urlInput.Prompt)-1)
	m.headersInput.SetWidth(sidebarInner)
	m.headersInput.SetHeight(HeadersEditorHeight)
	m.bodyInput.SetWidth(sidebarInner)
	m.bodyInput.SetHeight(BodyEditorHeight)

	m.historyView.Width = sidebarInner
	m.historyView.Height = max(1, m.historyHeight()-1) // -1 for the title
	m.searchInput.Width = max(10, m.width/3)

	m.responseView.Width = responseInner
	m.responseView.Height = max(1, m.height-StatusBarHeight-ViewportBorderWidth-1) // -1 for the title

	m.helpView.Width = m.width - 4
	m.helpView.Height = max(1, m.height-6)

	m.usernameInput.Width = AuthFormWidth - 8
	m.passwordInput.Width = AuthFormWidth - 8

	m.updateResponseView()
	m.refreshHistoryView()
	if m.mode == ModeHelp {
		m.updateHelpView()
	}
}

// updateResponseView renders the current outcome into the response viewport
func (m *Model) updateResponseView() {
	var content strings.Builder

	if errText := m.ws.Invoker().Status().Err; errText != "" {
		content.WriteString(styleError.Render("Error: "+errText) + "\n\n")
	}
	content.WriteString(render.Outcome(m.ws.Invoker().Outcome(), m.settings.HighlightEnabled()))

	text := content.String()
	if m.responseView.Width > 0 {
		text = lipgloss.NewStyle().Width(m.responseView.Width).Render(text)
	}
	m.responseView.SetContent(text)
	m.responseView.GotoTop()
}

// refreshHistoryView reloads the visible entries and redraws the list
func (m *Model) refreshHistoryView() {
	m.historyEntries = m.ws.History().Search(m.searchQuery)
	if m.historyIndex >= len(m.historyEntries) {
		m.historyIndex = len(m.historyEntries) - 1
	}
	if m.historyIndex < 0 {
		m.historyIndex = 0
	}

	status := m.ws.History().Status()
	var content strings.Builder

	switch {
	case len(m.historyEntries) > 0:
		for i, entry := range m.historyEntries {
			line := truncateWidth(render.HistoryLine(entry), m.historyView.Width)
			if i == m.historyIndex && m.focusedPanel == panelHistory {
				line = styleSelected.Render(line)
			} else if entry.ResponseStatus >= 400 {
				line = styleError.Render(line)
			}
			content.WriteString(line + "\n")
		}
	case status.Loading:
		content.WriteString(styleSubtle.Render("Loading history..."))
	case status.Err != "":
		content.WriteString(styleError.Render(status.Err))
	case m.searchQuery != "":
		content.WriteString(styleSubtle.Render("No matches for " + m.searchQuery))
	default:
		content.WriteString(styleSubtle.Render(render.EmptyHistory))
	}

	// Save current scroll position before updating content
	yOffset := m.historyView.YOffset
	m.historyView.SetContent(content.String())

	if len(m.historyEntries) == 0 {
		m.historyView.GotoTop()
		return
	}

	// Ensure selected item is visible in viewport
	switch {
	case m.historyIndex < yOffset:
		m.historyView.SetYOffset(m.historyIndex)
	case m.historyIndex >= yOffset+m.historyView.Height:
		m.historyView.SetYOffset(m.historyIndex - m.historyView.Height + 1)
	default:
		m.historyView.SetYOffset(yOffset)
	}
}

// truncateWidth cuts a line to width cells
func truncateWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
