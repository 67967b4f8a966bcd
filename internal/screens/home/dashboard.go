package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/ui/components"
	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

const titleFull = "L Æ S E M A S K I N E"

const titleCompact = "Læsemaskine"

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	text := titleFull
	if compact {
		text = titleCompact
	}
	title := lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(style.Render(text))
	if compact {
		return title
	}
	tagline := lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(
		theme.Hint.Render("Læs ordet højt, før det forsvinder"))
	return title + "\n" + tagline
}

// renderLastSession renders the latest finished session, or a welcome line
// before the first one.
func renderLastSession(last *backend.SessionInfo, loaded bool, cw int, compact bool) string {
	var body string
	switch {
	case !loaded:
		body = theme.Hint.Render("Henter seneste træning…")
	case last == nil:
		body = theme.Body.Render("Ingen træninger endnu. Tryk Enter for at starte!")
	default:
		level := last.StartLevel
		if last.EstimatedLevel != nil {
			level = *last.EstimatedLevel
		}
		levelStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
		correctStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)

		parts := []string{
			levelStyle.Render(fmt.Sprintf("Niveau %d", level)),
			correctStyle.Render(fmt.Sprintf("%d/%d rigtige", last.CorrectTotal, last.TotalWords)),
		}
		if last.Mastery != nil {
			parts = append(parts, theme.Body.Render(fmt.Sprintf("Mestring %d/10", *last.Mastery)))
		}
		sep := "   "
		if compact {
			sep = " "
		}
		body = strings.Join(parts, sep)
		if !compact {
			body = theme.Hint.Render("Seneste træning "+last.StartedAt.Local().Format("02-01-2006 15:04")) + "\n" + body
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw-2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(body)
}

func renderMenu(m components.Menu, cw int) string {
	return components.Card(m.View(cw-4), cw)
}

// renderFrame wraps content in a double border centered in the area.
func renderFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width-2).
		Height(height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
