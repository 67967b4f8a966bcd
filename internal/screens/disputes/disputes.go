// Package disputes is the teacher's review list for disputed answers.
package disputes

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
	"github.com/abhisek/laesemaskine/internal/store"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

const requestTimeout = 15 * time.Second

// statusFilters are cycled with Tab. The empty status shows everything.
var statusFilters = []string{"", store.DisputePending, store.DisputeApproved, store.DisputeRejected}

type disputesLoadedMsg struct {
	Disputes []store.Dispute
	Err      error
}

type actionDoneMsg struct {
	Notice string
	Err    error
}

// DisputesScreen lists disputes and applies review actions.
type DisputesScreen struct {
	svc backend.Backend

	disputes []store.Dispute
	filter   int
	selected int
	loaded   bool
	notice   string
	errMsg   string
}

var _ screen.Screen = (*DisputesScreen)(nil)
var _ screen.KeyHintProvider = (*DisputesScreen)(nil)

// New creates a new DisputesScreen.
func New(svc backend.Backend) *DisputesScreen {
	return &DisputesScreen{svc: svc, filter: 1}
}

func (s *DisputesScreen) Init() tea.Cmd {
	return s.load()
}

func (s *DisputesScreen) Title() string {
	return "Indsigelser"
}

func (s *DisputesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "A/R/P", Description: "Godkend/Afvis/Afventer"},
		{Key: "I", Description: "Send til AI"},
		{Key: "X", Description: "Slet lyd"},
		{Key: "Tab", Description: "Status"},
		{Key: "Esc", Description: "Tilbage"},
	}
}

func (s *DisputesScreen) load() tea.Cmd {
	svc, status := s.svc, statusFilters[s.filter]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := svc.Disputes(ctx, store.DisputeFilter{Status: status})
		return disputesLoadedMsg{Disputes: list, Err: err}
	}
}

// act runs fn against the selected dispute and reloads the list.
func (s *DisputesScreen) act(notice string, fn func(ctx context.Context, id int64) error) tea.Cmd {
	if s.selected >= len(s.disputes) {
		return nil
	}
	id := s.disputes[s.selected].ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx, id); err != nil {
			return actionDoneMsg{Err: err}
		}
		return actionDoneMsg{Notice: fmt.Sprintf(notice, id)}
	}
}

func (s *DisputesScreen) review(status string) func(context.Context, int64) error {
	return func(ctx context.Context, id int64) error {
		return s.svc.ReviewDispute(ctx, id, status)
	}
}

func (s *DisputesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case disputesLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.disputes = msg.Disputes
		if s.selected >= len(s.disputes) {
			s.selected = max(len(s.disputes)-1, 0)
		}
		return s, nil

	case actionDoneMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.notice = msg.Notice
		return s, s.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.disputes)-1 {
				s.selected++
			}
		case "tab":
			s.filter = (s.filter + 1) % len(statusFilters)
			s.selected = 0
			return s, s.load()
		case "a":
			return s, s.act("Indsigelse %d godkendt", s.review(store.DisputeApproved))
		case "r":
			return s, s.act("Indsigelse %d afvist", s.review(store.DisputeRejected))
		case "p":
			return s, s.act("Indsigelse %d sat til afventer", s.review(store.DisputePending))
		case "x":
			return s, s.act("Lyd slettet for indsigelse %d", s.svc.DeleteDisputeAudio)
		case "i":
			svc := s.svc
			return s, s.act("Indsigelse %d godkendt og sendt til AI", func(ctx context.Context, id int64) error {
				_, err := svc.SendToAI(ctx, id, "")
				return err
			})
		}
	}
	return s, nil
}

func (s *DisputesScreen) View(width, height int) string {
	if s.errMsg != "" && !s.loaded {
		return layout.Centered("\n\nFejl: "+s.errMsg, lipgloss.NewStyle().Foreground(theme.Error), width)
	}
	if !s.loaded {
		return layout.Centered("\n\nHenter indsigelser...", theme.Hint, width)
	}

	var b strings.Builder
	b.WriteString(s.renderTabs())
	b.WriteString("\n\n")

	if len(s.disputes) == 0 {
		b.WriteString(theme.Hint.Render("  Ingen indsigelser."))
		b.WriteString("\n")
	}

	listRows := max(height-10, 3)
	start := 0
	if s.selected >= listRows {
		start = s.selected - listRows + 1
	}
	for i := start; i < min(start+listRows, len(s.disputes)); i++ {
		b.WriteString(s.renderLine(i, width))
		b.WriteString("\n")
	}

	if s.selected < len(s.disputes) {
		b.WriteString("\n")
		b.WriteString(renderDetail(s.disputes[s.selected], width))
	}

	switch {
	case s.errMsg != "":
		b.WriteString("\n" + theme.Incorrect.Render(s.errMsg))
	case s.notice != "":
		b.WriteString("\n" + theme.Correct.Render(s.notice))
	}
	return lipgloss.NewStyle().MaxHeight(height).Render(b.String())
}

func statusLabel(status string) string {
	switch status {
	case store.DisputePending:
		return "afventer"
	case store.DisputeApproved:
		return "godkendt"
	case store.DisputeRejected:
		return "afvist"
	}
	return "alle"
}

func (s *DisputesScreen) renderTabs() string {
	var tabs []string
	for i, st := range statusFilters {
		label := " " + statusLabel(st) + " "
		if i == s.filter {
			tabs = append(tabs, theme.Selected.Underline(true).Render(label))
		} else {
			tabs = append(tabs, theme.Unselected.Render(label))
		}
	}
	return "  " + strings.Join(tabs, " ")
}

func (s *DisputesScreen) renderLine(i, width int) string {
	d := s.disputes[i]
	audio := " "
	if d.HasAudio {
		audio = "♪"
	}
	heard := d.Recognized
	if heard == "" {
		heard = "—"
	}
	line := fmt.Sprintf("%s %4d  %s  %s  %s  %s  %s",
		audio, d.ID,
		time.UnixMilli(d.CreatedAt).Local().Format("02-01 15:04"),
		layout.Pad(d.StudentID, 10),
		layout.Pad(d.Expected, 14),
		layout.Pad(heard, 14),
		statusLabel(d.Status))
	line = layout.Truncate(line, max(width-4, 10))
	if i == s.selected {
		return theme.TableCursor.Render("▸ " + line)
	}
	return theme.Body.Render("  " + line)
}

func renderDetail(d store.Dispute, width int) string {
	var lines []string
	if d.ErrorType != "" {
		lines = append(lines, "Fejltype: "+d.ErrorType)
	}
	if d.Note != "" {
		lines = append(lines, "Note: "+d.Note)
	}
	if d.AIVerdict != "" {
		lines = append(lines, fmt.Sprintf("AI: %s (%.0f%%)", d.AIVerdict, d.AIConfidence*100))
		if d.AIReasoning != "" {
			lines = append(lines, layout.Truncate(d.AIReasoning, max(width-6, 20)))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return theme.Hint.Render("  " + strings.Join(lines, "\n  "))
}
