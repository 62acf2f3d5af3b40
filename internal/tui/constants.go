package tui

// UI Layout Constants
const (
	// Viewport Padding and Borders
	ViewportBorderWidth       = 2 // Width consumed by borders
	ViewportPaddingHorizontal = 2 // Horizontal padding (left + right)

	// Status bar takes the last line
	StatusBarHeight = 1

	// Composer editors
	HeadersEditorHeight = 4
	BodyEditorHeight    = 6

	// Composer box: URL (2) + method (2) + headers label (1) + body label (1) + spacing (2)
	ComposerChromeLines = 8

	// Sidebar takes 45% of the width, but never less than this
	MinSidebarWidth = 40

	// Auth form width
	AuthFormWidth = 50

	// Footer messages are truncated to this many characters
	MaxMessageLength = 100
)
