package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	// Contexts define where keybindings are active
	ContextGlobal   Context = "global"   // Available everywhere
	ContextAuth     Context = "auth"     // Login/register form
	ContextCompose  Context = "compose"  // URL, headers and body editors (text input owns printable keys)
	ContextMethod   Context = "method"   // Method selector
	ContextResponse Context = "response" // Response viewer
	ContextHistory  Context = "history"  // History list
	ContextSearch   Context = "search"   // History search input
	ContextHelp     Context = "help"     // Help viewer
)

const (
	// Global actions
	ActionQuit      Action = "quit"       // Quit application
	ActionQuitForce Action = "quit_force" // Force quit (ctrl+c)
	ActionOpenHelp  Action = "open_help"  // Show key help

	// Focus
	ActionSwitchFocus Action = "switch_focus" // Focus next panel or field
	ActionFocusPrev   Action = "focus_prev"   // Focus previous panel or field

	// Navigation actions
	ActionNavigateUp   Action = "navigate_up"   // Move up one item
	ActionNavigateDown Action = "navigate_down" // Move down one item
	ActionPageUp       Action = "page_up"       // Move up one page
	ActionPageDown     Action = "page_down"     // Move down one page
	ActionGoToTop      Action = "go_to_top"     // Go to top
	ActionGoToBottom   Action = "go_to_bottom"  // Go to bottom

	// Auth form
	ActionSubmit         Action = "submit"          // Submit login or register
	ActionToggleRegister Action = "toggle_register" // Switch between login and register

	// Request
	ActionSend        Action = "send"         // Send the request through the proxy
	ActionCycleMethod Action = "cycle_method" // Next HTTP method
	ActionCopy        Action = "copy_response"

	// History
	ActionRefreshHistory Action = "refresh_history" // Reload history
	ActionSelectEntry    Action = "select_entry"    // Load entry into the composer
	ActionOpenSearch     Action = "open_search"     // Fuzzy search history
	ActionCloseSearch    Action = "close_search"    // Leave search, keeping the filter

	// Session
	ActionLogout Action = "logout"

	// Modal actions
	ActionCloseModal Action = "close_modal"
)

// ActionInfo contains metadata about an action
type ActionInfo struct {
	Action      Action
	Description string
	Category    string
}

var actionInfos = map[Action]ActionInfo{
	ActionQuit:           {ActionQuit, "Quit", "Global"},
	ActionQuitForce:      {ActionQuitForce, "Force quit", "Global"},
	ActionOpenHelp:       {ActionOpenHelp, "Show key help", "Global"},
	ActionSwitchFocus:    {ActionSwitchFocus, "Next field", "Focus"},
	ActionFocusPrev:      {ActionFocusPrev, "Previous field", "Focus"},
	ActionNavigateUp:     {ActionNavigateUp, "Move up", "Navigation"},
	ActionNavigateDown:   {ActionNavigateDown, "Move down", "Navigation"},
	ActionPageUp:         {ActionPageUp, "Page up", "Navigation"},
	ActionPageDown:       {ActionPageDown, "Page down", "Navigation"},
	ActionGoToTop:        {ActionGoToTop, "Go to top", "Navigation"},
	ActionGoToBottom:     {ActionGoToBottom, "Go to bottom", "Navigation"},
	ActionSubmit:         {ActionSubmit, "Submit", "Auth"},
	ActionToggleRegister: {ActionToggleRegister, "Switch login/register", "Auth"},
	ActionSend:           {ActionSend, "Send request", "Request"},
	ActionCycleMethod:    {ActionCycleMethod, "Change method", "Request"},
	ActionCopy:           {ActionCopy, "Copy response body", "Response"},
	ActionRefreshHistory: {ActionRefreshHistory, "Refresh history", "History"},
	ActionSelectEntry:    {ActionSelectEntry, "Load history entry", "History"},
	ActionOpenSearch:     {ActionOpenSearch, "Search history", "History"},
	ActionCloseSearch:    {ActionCloseSearch, "Close search", "History"},
	ActionLogout:         {ActionLogout, "Log out", "Session"},
	ActionCloseModal:     {ActionCloseModal, "Close", "Modal"},
}

// GetActionInfo returns human-readable information about an action
func GetActionInfo(action Action) ActionInfo {
	if info, ok := actionInfos[action]; ok {
		return info
	}
	return ActionInfo{action, string(action), "Unknown"}
}

// IsKnownAction reports whether action is handled by the TUI
func IsKnownAction(action Action) bool {
	_, ok := actionInfos[action]
	return ok
}

// Contexts lists every context in display order
var Contexts = []Context{
	ContextGlobal,
	ContextAuth,
	ContextCompose,
	ContextMethod,
	ContextResponse,
	ContextHistory,
	ContextSearch,
	ContextHelp,
}
