package results

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/querytable"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
	"github.com/abhisek/laesemaskine/internal/ui/theme"
)

func (s *ResultsScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered("\n\nFejl: "+s.errMsg, lipgloss.NewStyle().Foreground(theme.Error), width)
	}
	if !s.loaded {
		return layout.Centered("\n\nHenter svar...", theme.Hint, width)
	}
	if s.mode == modePick {
		return s.picker.View(height - 2)
	}

	first, last := s.visibleColumns(width)

	var b strings.Builder
	b.WriteString(s.renderHeader(first, last))
	b.WriteString("\n")

	bodyRows := max(height-4, 1)
	s.scroll(bodyRows)
	end := min(s.offset+bodyRows, len(s.rows))
	for i := s.offset; i < end; i++ {
		b.WriteString(s.renderRow(i, first, last))
		b.WriteString("\n")
	}
	for i := end - s.offset; i < bodyRows; i++ {
		b.WriteString("\n")
	}

	b.WriteString(s.renderStatus())
	return b.String()
}

// visibleColumns returns the column range that fits width while keeping
// the selected column in view.
func (s *ResultsScreen) visibleColumns(width int) (int, int) {
	cols := s.table.Columns
	first := 0
	for {
		used := 0
		last := first
		for last < len(cols) {
			w := ColumnWidth(cols[last].Key) + 1
			if used+w > width && last > first {
				break
			}
			used += w
			last++
		}
		if s.col < last || first >= s.col {
			return first, last
		}
		first++
	}
}

func (s *ResultsScreen) scroll(rows int) {
	if s.row < s.offset {
		s.offset = s.row
	}
	if s.row >= s.offset+rows {
		s.offset = s.row - rows + 1
	}
}

func (s *ResultsScreen) renderHeader(first, last int) string {
	var cells []string
	for i := first; i < last; i++ {
		style := theme.TableHeader
		if i == s.col {
			style = style.Underline(true)
		}
		cells = append(cells, style.Render(s.headerCell(s.table.Columns[i])))
	}
	return strings.Join(cells, " ")
}

// headerCell fits a column title to its width. The sort arrow, rank and
// filter marker are never truncated; the title gives way instead.
func (s *ResultsScreen) headerCell(col querytable.Column[backend.AnswerItem]) string {
	var mark string
	if idx := s.sort.Index(col.Key); idx >= 0 {
		mark = "↑"
		if s.sort[idx].Direction == querytable.Desc {
			mark = "↓"
		}
		if len(s.sort) > 1 {
			mark += fmt.Sprint(idx + 1)
		}
	}
	if s.filters[col.Key] != "" {
		mark += "*"
	}
	width := ColumnWidth(col.Key)
	room := width - lipgloss.Width(mark)
	if room < 1 {
		return layout.Pad(mark, width)
	}
	return layout.Pad(layout.Truncate(col.Title, room)+mark, width)
}

func (s *ResultsScreen) renderRow(i, first, last int) string {
	item := s.rows[i]
	var cells []string
	for c := first; c < last; c++ {
		col := s.table.Columns[c]
		text := col.Format(item)
		if col.Kind == querytable.Date && text != querytable.Empty {
			text = strings.Replace(text, "T", " ", 1)
		}
		cells = append(cells, layout.Pad(text, ColumnWidth(col.Key)))
	}
	line := strings.Join(cells, " ")
	switch {
	case i == s.row:
		return theme.TableCursor.Render(line)
	case !item.Correct:
		return lipgloss.NewStyle().Foreground(theme.Error).Render(line)
	}
	return theme.Body.Render(line)
}

func (s *ResultsScreen) renderStatus() string {
	col := s.table.Columns[s.col]
	if s.mode == modeFilter {
		return theme.Subtitle.Render("Filter "+col.Title+": ") + s.input.View()
	}
	status := fmt.Sprintf("%d af %d svar", len(s.rows), len(s.all))
	if f := s.filters[col.Key]; f != "" {
		status += fmt.Sprintf("    %s: %s", col.Title, f)
	}
	return theme.Hint.Render(status)
}
