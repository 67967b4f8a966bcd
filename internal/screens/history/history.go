// Package history lists a student's finished sessions.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/screen"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

const loadTimeout = 10 * time.Second

type historyLoadedMsg struct {
	Sessions []backend.SessionInfo
	Err      error
}

type detailLoadedMsg struct {
	SessionID string
	Items     []backend.AnswerItem
	Err       error
}

// HistoryScreen displays past sessions and, on demand, their answers.
type HistoryScreen struct {
	svc       backend.Backend
	studentID string

	sessions []backend.SessionInfo
	items    map[string][]backend.AnswerItem
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(svc backend.Backend, studentID string) *HistoryScreen {
	return &HistoryScreen{
		svc:       svc,
		studentID: studentID,
		items:     make(map[string][]backend.AnswerItem),
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	svc, student := s.svc, s.studentID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		sessions, err := svc.ListSessions(ctx, student)
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Mine træninger"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Vis svar"},
		{Key: "↑↓", Description: "Naviger"},
		{Key: "Esc", Description: "Tilbage"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case detailLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.items[msg.SessionID] = msg.Items
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if len(s.sessions) == 0 {
				return s, nil
			}
			s.expanded[s.selected] = !s.expanded[s.selected]
			if s.expanded[s.selected] {
				return s, s.loadDetail(s.sessions[s.selected].ID)
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) loadDetail(id string) tea.Cmd {
	if _, ok := s.items[id]; ok {
		return nil
	}
	svc := s.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		d, err := svc.Session(ctx, id)
		if err != nil {
			return detailLoadedMsg{SessionID: id, Err: err}
		}
		return detailLoadedMsg{SessionID: id, Items: d.Items}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nFejl: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Henter træninger...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  Ingen træninger endnu. Kom i gang!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		level := sess.StartLevel
		if sess.EstimatedLevel != nil {
			level = *sess.EstimatedLevel
		}
		var mastery string
		if sess.Mastery != nil {
			mastery = fmt.Sprintf("  mestring %d/10", *sess.Mastery)
		}
		line := fmt.Sprintf("%s%s  niveau %2d  %d/%d rigtige%s",
			prefix, sess.StartedAt.Local().Format("02-01-2006 15:04"),
			level, sess.CorrectTotal, sess.TotalWords, mastery)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderItems(sess.ID, width))
		}
	}

	return lipgloss.NewStyle().MaxHeight(height).Render(b.String())
}

func (s *HistoryScreen) renderItems(id string, width int) string {
	items, ok := s.items[id]
	dim := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
	if !ok {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, dim.Render("    Henter svar...")) + "\n"
	}
	if len(items) == 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, dim.Render("    Ingen svar")) + "\n"
	}

	var b strings.Builder
	for _, it := range items {
		mark, style := "✓", theme.Correct
		if !it.Correct {
			mark, style = "✗", theme.Incorrect
		}
		heard := it.Recognized
		if heard == "" {
			heard = "—"
		}
		line := fmt.Sprintf("    %s %s  %s  %.1fs", mark,
			layout.Pad(it.Expected, 14), layout.Pad(heard, 14), float64(it.ResponseTimeMs)/1000)
		if !it.Correct && it.Diagnostics.MessageShort != "" {
			line += "  " + it.Diagnostics.MessageShort
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}
