// Package screen defines what the router stacks.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/laesemaskine/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is pushed.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface for screens with custom footer
// key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is an optional interface for screens that know the
// student and level shown in the header.
type StatusProvider interface {
	Status() layout.Status
}

// EscapeHandler is an optional interface for screens that handle Esc
// themselves instead of being popped.
type EscapeHandler interface {
	HandlesEscape() bool
}

// QuitHandler is an optional interface for screens that must release
// something before the program exits. The returned command runs before quit.
type QuitHandler interface {
	OnQuit() tea.Cmd
}
