package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	sess "github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/ui/components"
	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

// renderWordView renders the word area for the current phase.
func (s *SessionScreen) renderWordView(width, height int) string {
	ev := s.phase
	cw := components.ContentWidth(width)

	var b strings.Builder

	info := fmt.Sprintf("  Ord %d/%d   Niveau %d", min(ev.Index+1, max(ev.Total, 1)), ev.Total, ev.Level)
	b.WriteString(theme.Subtitle.Render(info))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 1))))
	b.WriteString("\n\n")

	b.WriteString(s.renderStage(width))
	b.WriteString("\n\n")

	b.WriteString(components.Centered(components.CountdownBar(s.bar, cw).View(), width, 1))
	b.WriteString("\n\n")
	b.WriteString(components.Centered(s.input.View(), width, 1))
	b.WriteString("\n\n")

	overall := components.NewProgressBar("Forløb", ev.Progress, true, cw)
	b.WriteString(components.Centered(overall.View(), width, 1))

	return lipgloss.NewStyle().MaxHeight(height).Render(b.String())
}

// renderStage renders what the reader sees in the current phase.
func (s *SessionScreen) renderStage(width int) string {
	ev := s.phase
	switch ev.Phase {
	case sess.PhaseIdle, sess.PhasePreRoll:
		return components.Centered(theme.Hint.Render("Gør dig klar…"), width, 3)

	case sess.PhaseExposed:
		return components.Centered(theme.Word.Render(ev.Word.Text), width, 3)

	case sess.PhasePost:
		return components.Centered(theme.Hint.Render("Sig ordet højt"), width, 3)

	case sess.PhaseFeedback, sess.PhaseAdvance:
		return components.Centered(s.renderFeedback(), width, 3)

	case sess.PhaseFinished:
		return components.Centered(theme.Body.Render("Færdig! Beregner resultat…"), width, 3)
	}
	return ""
}

func (s *SessionScreen) renderFeedback() string {
	fb := s.feedback
	if fb == nil {
		return ""
	}
	if s.sc.FeedbackMode == sess.FeedbackAfterTest {
		return theme.Hint.Render("Svar registreret")
	}
	if fb.Correct {
		return theme.Correct.Render("✓ " + fb.Word.Text)
	}

	var b strings.Builder
	b.WriteString(theme.Incorrect.Render("✗ " + fb.Word.Text))
	if fb.Heard != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Hørt: " + fb.Heard))
	}
	if fb.Verdict != nil && fb.Verdict.Diagnostics.MessageShort != "" {
		b.WriteString("\n")
		b.WriteString(theme.Warning.Render(fb.Verdict.Diagnostics.MessageShort))
	}
	return b.String()
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n  Starter træning...")
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(layoutCenter(width, theme.Title.Render("Stop træningen?")))
	b.WriteString("\n\n")
	b.WriteString(layoutCenter(width, theme.Body.Render("Ord der ikke er læst, tæller ikke med.")))
	b.WriteString("\n\n")
	b.WriteString(layoutCenter(width, theme.Hint.Render("[J] Stop   [N] Fortsæt")))
	return b.String()
}

func renderError(width int, msg string) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(layoutCenter(width, theme.Incorrect.Render("Træningen kunne ikke gennemføres")))
	b.WriteString("\n\n")
	b.WriteString(layoutCenter(width, theme.Hint.Render(msg)))
	return b.String()
}

func layoutCenter(width int, s string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(s)
}
