package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

// CheckItem is one selectable value.
type CheckItem struct {
	Label   string
	Count   int
	Checked bool
}

// Checklist is a scrolling multi-select list. Space toggles, enter confirms.
type Checklist struct {
	Title     string
	Items     []CheckItem
	Cursor    int
	Submitted bool
}

// NewChecklist creates a checklist with nothing checked.
func NewChecklist(title string, items []CheckItem) Checklist {
	return Checklist{Title: title, Items: items}
}

// Update handles navigation, toggling and confirmation.
func (c Checklist) Update(msg tea.Msg) (Checklist, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || c.Submitted {
		return c, nil
	}
	switch kmsg.String() {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Items)-1 {
			c.Cursor++
		}
	case "space", " ":
		if c.Cursor < len(c.Items) {
			c.Items[c.Cursor].Checked = !c.Items[c.Cursor].Checked
		}
	case "a":
		all := true
		for _, it := range c.Items {
			all = all && it.Checked
		}
		for i := range c.Items {
			c.Items[i].Checked = !all
		}
	case "enter":
		c.Submitted = true
	}
	return c, nil
}

// Checked returns the labels of the checked items in list order.
func (c Checklist) Checked() []string {
	var out []string
	for _, it := range c.Items {
		if it.Checked {
			out = append(out, it.Label)
		}
	}
	return out
}

// View renders at most height rows around the cursor.
func (c Checklist) View(height int) string {
	s := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(c.Title) + "\n\n"
	if len(c.Items) == 0 {
		return s + theme.Hint.Render("(ingen værdier)")
	}
	rows := max(height-2, 1)
	start := 0
	if c.Cursor >= rows {
		start = c.Cursor - rows + 1
	}
	end := min(start+rows, len(c.Items))
	for i := start; i < end; i++ {
		it := c.Items[i]
		box := "[ ]"
		if it.Checked {
			box = "[x]"
		}
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == c.Cursor {
			prefix = "▸ "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		s += style.Render(fmt.Sprintf("%s%s %s", prefix, box, it.Label)) +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  (%d)", it.Count)) + "\n"
	}
	return s
}
