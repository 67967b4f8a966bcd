// Package home is the main menu.
package home

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/screen"
	"github.com/abhisek/laesemaskine/internal/ui/components"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
)

// Screens builds the screens reachable from the menu. A nil constructor
// disables its menu entry.
type Screens struct {
	Training func() screen.Screen
	History  func() screen.Screen
	Results  func() screen.Screen
	Disputes func() screen.Screen
}

type lastSessionMsg struct {
	last *backend.SessionInfo
	err  error
}

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	sessions  backend.Backend
	studentID string
	logger    *slog.Logger

	menu   components.Menu
	last   *backend.SessionInfo
	loaded bool
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.StatusProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(svc backend.Backend, studentID string, screens Screens, logger *slog.Logger) *HomeScreen {
	if logger == nil {
		logger = slog.Default()
	}
	push := func(build func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd { return router.Push(build()) }
	}
	item := func(label, hint string, build func() screen.Screen) components.MenuItem {
		it := components.MenuItem{Label: label, Hint: hint, Disabled: build == nil}
		if build != nil {
			it.Action = push(build)
		}
		return it
	}

	items := []components.MenuItem{
		item("Start træning", "20 ord, tilpasset dit niveau", screens.Training),
		item("Mine træninger", "Tidligere træninger og svar", screens.History),
		item("Resultater", "Alle svar, med filtre og sortering", screens.Results),
		item("Indsigelser", "Gennemse indsigelser mod bedømmelser", screens.Disputes),
		{Label: "Afslut", Action: func() tea.Cmd { return tea.Quit }},
	}

	return &HomeScreen{
		sessions:  svc,
		studentID: studentID,
		logger:    logger,
		menu:      components.NewMenu(items),
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadLast()
}

// Refresh reloads the latest session when the screen is uncovered.
func (h *HomeScreen) Refresh() tea.Cmd {
	return h.loadLast()
}

func (h *HomeScreen) loadLast() tea.Cmd {
	svc, student := h.sessions, h.studentID
	if svc == nil {
		h.loaded = true
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		list, err := svc.ListSessions(ctx, student)
		if err != nil {
			return lastSessionMsg{err: err}
		}
		for i := range list {
			if list[i].EndedAt != nil {
				return lastSessionMsg{last: &list[i]}
			}
		}
		return lastSessionMsg{}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(lastSessionMsg); ok {
		h.loaded = true
		if m.err != nil {
			h.logger.Warn("load last session failed", "error", m.err)
			return h, nil
		}
		h.last = m.last
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 22 || layout.IsCompactWidth(width)
	cw := components.ContentWidth(width)

	sections := []string{
		renderTitle(cw, compact),
		renderLastSession(h.last, h.loaded, cw, compact),
		renderMenu(h.menu, cw),
	}
	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Hjem"
}

func (h *HomeScreen) Status() layout.Status {
	st := layout.Status{StudentID: h.studentID}
	if h.last != nil && h.last.EstimatedLevel != nil {
		st.Level = *h.last.EstimatedLevel
	}
	return st
}
