package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerAuthBindings(r)
	registerMethodBindings(r)
	registerViewerBindings(r, ContextResponse)
	registerViewerBindings(r, ContextHistory)
	registerResponseBindings(r)
	registerHistoryBindings(r)
	registerSearchBindings(r)
	registerHelpBindings(r)

	return r
}

// registerGlobalBindings sets up bindings available in all modes.
// Global keys reach text inputs too, so only control keys belong here.
func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
	r.Register(ContextGlobal, "f1", ActionOpenHelp)
	r.Register(ContextGlobal, "tab", ActionSwitchFocus)
	r.Register(ContextGlobal, "shift+tab", ActionFocusPrev)
	r.Register(ContextGlobal, "ctrl+s", ActionSend)
	r.Register(ContextGlobal, "ctrl+r", ActionRefreshHistory)
	r.Register(ContextGlobal, "ctrl+l", ActionLogout)
	r.Register(ContextGlobal, "ctrl+y", ActionCopy)
	r.Register(ContextGlobal, "ctrl+f", ActionOpenSearch)
}

func registerAuthBindings(r *Registry) {
	r.RegisterMultiple(ContextAuth, []string{"enter", "ctrl+s"}, ActionSubmit)
	r.Register(ContextAuth, "ctrl+t", ActionToggleRegister)
	r.Register(ContextAuth, "up", ActionFocusPrev)
	r.Register(ContextAuth, "down", ActionSwitchFocus)
}

func registerMethodBindings(r *Registry) {
	r.RegisterMultiple(ContextMethod, []string{"enter", " ", "right", "l"}, ActionCycleMethod)
	r.Register(ContextMethod, "q", ActionQuit)
	r.Register(ContextMethod, "?", ActionOpenHelp)
}

// registerViewerBindings sets up scrolling for read-only panels
func registerViewerBindings(r *Registry, context Context) {
	r.RegisterMultiple(context, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(context, []string{"down", "j"}, ActionNavigateDown)
	r.RegisterMultiple(context, []string{"pgup", "ctrl+u"}, ActionPageUp)
	r.RegisterMultiple(context, []string{"pgdown", "ctrl+d"}, ActionPageDown)
	r.RegisterMultiple(context, []string{"home", "g"}, ActionGoToTop)
	r.RegisterMultiple(context, []string{"end", "G"}, ActionGoToBottom)
	r.Register(context, "q", ActionQuit)
	r.Register(context, "?", ActionOpenHelp)
}

func registerResponseBindings(r *Registry) {
	r.Register(ContextResponse, "y", ActionCopy)
}

func registerHistoryBindings(r *Registry) {
	r.Register(ContextHistory, "enter", ActionSelectEntry)
	r.Register(ContextHistory, "/", ActionOpenSearch)
	r.Register(ContextHistory, "r", ActionRefreshHistory)
}

func registerSearchBindings(r *Registry) {
	r.Register(ContextSearch, "enter", ActionCloseSearch)
	r.Register(ContextSearch, "esc", ActionCloseModal)
	r.Register(ContextSearch, "up", ActionNavigateUp)
	r.Register(ContextSearch, "down", ActionNavigateDown)
}

func registerHelpBindings(r *Registry) {
	r.RegisterMultiple(ContextHelp, []string{"esc", "q", "?", "f1"}, ActionCloseModal)
}
