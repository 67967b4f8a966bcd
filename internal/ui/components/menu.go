package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Disabled entries are shown dimmed and
// skipped by the cursor.
type MenuItem struct {
	Label    string
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list with a wrapping cursor. Digits 1-9 jump to and
// activate the matching entry.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu selects the first enabled entry.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(1)
	return m
}

// move steps the cursor by dir, wrapping, until it lands on an enabled
// entry. The cursor stays put when nothing is enabled.
func (m *Menu) move(dir int) {
	n := len(m.Items)
	for step := 1; step <= n; step++ {
		i := ((m.Selected+dir*step)%n + n) % n
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}

func (m Menu) activate() tea.Cmd {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return nil
	}
	item := m.Items[m.Selected]
	if item.Disabled || item.Action == nil {
		return nil
	}
	return item.Action()
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	switch k := kmsg.String(); k {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter", "space":
		return m, m.activate()
	default:
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 || n > len(m.Items) || m.Items[n-1].Disabled {
			return m, nil
		}
		m.Selected = n - 1
		return m, m.activate()
	}
	return m, nil
}

// View renders the menu at width, with the hint under the selected entry.
func (m Menu) View(width int) string {
	base := lipgloss.NewStyle().Width(width).Foreground(theme.Text)
	hint := lipgloss.NewStyle().Width(width).Foreground(theme.TextDim).Italic(true)

	var b strings.Builder
	for i, item := range m.Items {
		prefix := "    "
		style := base
		if item.Disabled {
			style = style.Foreground(theme.TextDim)
		} else if i == m.Selected {
			prefix = "  ▸ "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(style.Render(prefix + item.Label))
		b.WriteByte('\n')
		if i == m.Selected && item.Hint != "" {
			b.WriteString(hint.Render("      " + item.Hint))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
