// Package summary shows the result of a finished session and lets the
// reader dispute answers they believe were scored wrongly.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/laesemaskine/internal/dispute"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/screen"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

// Options configures the summary screen.
type Options struct {
	// Flow files disputes. Disputing is disabled when nil.
	Flow      *dispute.Flow
	Logger    *slog.Logger
	StudentID string
	Feedback  string
}

// quitTimeout bounds the delete when the program exits from this screen.
const quitTimeout = 2 * time.Second

type disputeDoneMsg struct {
	sessionWordID int64
	err           error
}

type discardDoneMsg struct {
	err error
}

// SummaryScreen displays the session summary.
type SummaryScreen struct {
	summary *session.Summary
	opts    Options

	cursor  int
	sending map[int64]bool
	errMsg  string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)
var _ screen.StatusProvider = (*SummaryScreen)(nil)
var _ screen.EscapeHandler = (*SummaryScreen)(nil)
var _ screen.QuitHandler = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *session.Summary, opts Options) *SummaryScreen {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SummaryScreen{summary: summary, opts: opts, sending: make(map[int64]bool)}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Resultat"
}

// HandlesEscape keeps Esc here so leaving also drops the recording.
func (s *SummaryScreen) HandlesEscape() bool { return true }

func (s *SummaryScreen) Status() layout.Status {
	st := layout.Status{StudentID: s.opts.StudentID}
	if s.summary != nil {
		st.Level = s.summary.Result.EstimatedLevel
	}
	return st
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Færdig"}}
	if s.canDispute() {
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Vælg ord"},
			layout.KeyHint{Key: "D", Description: "Indsigelse"},
		)
	}
	return hints
}

func (s *SummaryScreen) canDispute() bool {
	return s.opts.Flow != nil && s.summary != nil && len(s.summary.Missed) > 0
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case disputeDoneMsg:
		delete(s.sending, msg.sessionWordID)
		if msg.err != nil {
			s.errMsg = "Indsigelsen kunne ikke sendes: " + msg.err.Error()
		} else {
			s.errMsg = ""
		}
		return s, nil

	case discardDoneMsg:
		if msg.err != nil {
			s.opts.Logger.Warn("discarding session audio failed", "key", s.audioKey(), "error", msg.err)
		}
		return s, router.Pop()

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, s.leave()
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.summary != nil && s.cursor < len(s.summary.Missed)-1 {
				s.cursor++
			}
		case "d", "D":
			return s, s.disputeSelected()
		}
	}
	return s, nil
}

// audioKey is the buffered recording this screen is responsible for, or ""
// when there is nothing to drop.
func (s *SummaryScreen) audioKey() string {
	if s.opts.Flow == nil || s.summary == nil {
		return ""
	}
	return s.summary.Result.AudioKey
}

// leave drops the buffered recording and returns to the previous screen.
func (s *SummaryScreen) leave() tea.Cmd {
	key := s.audioKey()
	if key == "" {
		return router.Pop()
	}
	flow := s.opts.Flow
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return discardDoneMsg{err: flow.Discard(ctx, key)}
	}
}

// OnQuit drops the recording when the program exits from the summary.
func (s *SummaryScreen) OnQuit() tea.Cmd {
	key := s.audioKey()
	if key == "" {
		return nil
	}
	flow, logger := s.opts.Flow, s.opts.Logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
		defer cancel()
		if err := flow.Discard(ctx, key); err != nil {
			logger.Warn("discarding session audio on quit failed", "key", key, "error", err)
		}
		return nil
	}
}

func (s *SummaryScreen) disputeSelected() tea.Cmd {
	if !s.canDispute() {
		return nil
	}
	rec := s.summary.Missed[s.cursor]
	id := rec.SessionWordID
	if id == 0 || s.sending[id] || s.opts.Flow.Sent(id) {
		return nil
	}
	s.sending[id] = true
	flow := s.opts.Flow
	req := dispute.Request{
		SessionWordID: id,
		AudioKey:      s.summary.Result.AudioKey,
		StartMs:       rec.StartMs,
		EndMs:         rec.EndMs,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := flow.Submit(ctx, req)
		return disputeDoneMsg{sessionWordID: id, err: err}
	}
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}
	res := sum.Result

	var b strings.Builder
	center := func(st lipgloss.Style, text string) {
		b.WriteString(layout.Centered(text, st, width))
		b.WriteString("\n")
	}

	center(theme.Title, "Træningen er slut!")
	b.WriteString("\n")
	center(theme.Body, fmt.Sprintf("Niveau %d    %d/%d rigtige", res.EstimatedLevel, res.CorrectTotal, res.TotalWords))

	var stats []string
	if res.Mastery != nil {
		stats = append(stats, fmt.Sprintf("Mestring %d/10", *res.Mastery))
	}
	if res.Score != nil {
		stats = append(stats, fmt.Sprintf("Score %.1f", *res.Score))
	}
	if res.Accuracy != nil {
		stats = append(stats, fmt.Sprintf("Præcision %.0f%%", *res.Accuracy*100))
	} else {
		stats = append(stats, fmt.Sprintf("Præcision %.0f%%", sum.Accuracy*100))
	}
	if res.Speed != nil {
		stats = append(stats, fmt.Sprintf("Tempo %.2f", *res.Speed))
	}
	if sum.AverageResponse > 0 {
		stats = append(stats, fmt.Sprintf("Svartid %.1fs", sum.AverageResponse.Seconds()))
	}
	center(theme.Hint, strings.Join(stats, "    "))
	b.WriteString("\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	center(theme.Hint, "Niveauer")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")
	for _, lr := range sum.Levels {
		line := fmt.Sprintf("Niveau %2d    %d/%d", lr.Level, lr.Correct, lr.Total)
		style := theme.Body
		if lr.Correct == lr.Total {
			style = theme.Correct
		}
		center(style, line)
	}

	if len(sum.Missed) > 0 {
		b.WriteString("\n")
		center(theme.Hint, "Ord der gik galt")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		for i, rec := range sum.Missed {
			b.WriteString(layout.Centered(s.missedLine(i, rec), lipgloss.NewStyle(), width))
			b.WriteString("\n")
		}
	}

	if s.errMsg != "" {
		b.WriteString("\n")
		center(theme.Incorrect, s.errMsg)
	}

	return lipgloss.NewStyle().MaxHeight(height).Render(b.String())
}

func (s *SummaryScreen) missedLine(i int, rec session.AnswerRecord) string {
	heard := rec.Recognized
	if heard == "" {
		heard = "(intet)"
	}
	line := fmt.Sprintf("%-16s hørt: %-16s", rec.Word.Text, heard)

	mark := "  "
	switch {
	case s.opts.Flow != nil && s.opts.Flow.Sent(rec.SessionWordID):
		mark = "✓ sendt"
	case s.sending[rec.SessionWordID]:
		mark = "sender…"
	}
	line += " " + mark

	if s.canDispute() && i == s.cursor {
		return theme.Selected.Render("▸ " + line)
	}
	return theme.Unselected.Render("  " + line)
}
