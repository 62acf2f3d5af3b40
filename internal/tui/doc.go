/*
Package tui implements the terminal user interface for postcli.

# Architecture

The TUI follows the Bubble Tea framework's Model-Update-View pattern:
  - Model: view state (inputs, viewports, focus, messages) over a workspace
  - Update: processes messages and returns commands
  - View: renders the current state to the terminal

Application state (session, draft, last response, history) lives in
workspace.Workspace, which is safe for concurrent use. The model only mirrors
it into bubbles components.

# Key Components

  - model.go: Model struct, Update loop and message types
  - keys.go: keyboard routing through the keybinds registry
  - actions.go: tea.Cmd wrappers around workspace calls
  - render.go: lipgloss rendering of the auth form and the main view
  - init.go: construction and program start

# Threading Model

The TUI runs in Bubble Tea's event loop. Login, send and history loads run
in tea.Cmd goroutines. The history refresh started after every successful
send reports on the invoker's Refreshes channel, which the model keeps a
waiting command on for its whole lifetime.
*/
package tui
