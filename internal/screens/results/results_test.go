package results

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/querytable"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
)

func press(s string) tea.KeyPressMsg {
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

// plain renders the screen without styling.
func plain(s *ResultsScreen, width, height int) string {
	return ansi.Strip(s.View(width, height))
}

func typeText(scr *ResultsScreen, text string) {
	for _, r := range text {
		scr.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func items() []backend.AnswerItem {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	return []backend.AnswerItem{
		{SessionWordID: 1, StudentID: "anna", Expected: "kat", Recognized: "kat", Correct: true, Level: 1, ResponseTimeMs: 800, Timestamp: base},
		{SessionWordID: 2, StudentID: "anna", Expected: "hunden", Recognized: "hund", Level: 3, ErrorType: "missing_ending", ResponseTimeMs: 1500, Timestamp: base.Add(time.Minute)},
		{SessionWordID: 3, StudentID: "bo", Expected: "sol", Recognized: "sol", Correct: true, Level: 2, ResponseTimeMs: 600, Timestamp: base.Add(time.Hour)},
		{SessionWordID: 4, StudentID: "bo", Expected: "blå", Level: 3, Skipped: true, Timestamp: base.Add(2 * time.Hour)},
	}
}

func loaded() *ResultsScreen {
	s := New(nil, "")
	s.Update(answersLoadedMsg{Items: items()})
	return s
}

func ids(rows []backend.AnswerItem) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.SessionWordID
	}
	return out
}

func TestAnswerTableColumns(t *testing.T) {
	tbl := AnswerTable()
	rows := items()

	tests := []struct {
		key  string
		row  int
		want string
	}{
		{ColWord, 1, "hunden"},
		{ColCorrect, 0, "ja"},
		{ColCorrect, 1, "nej"},
		{ColLevel, 2, "2"},
		{ColResponse, 1, "1.5"},
		{ColResponse, 3, querytable.Empty},
		{ColHeard, 3, querytable.Empty},
		{ColTime, 0, "2026-03-02T09:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			col, ok := tbl.Column(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, col.Format(rows[tt.row]))
		})
	}
}

func TestDefaultSortNewestFirst(t *testing.T) {
	s := loaded()
	assert.Equal(t, []int64{4, 3, 2, 1}, ids(s.rows))
}

func TestSortClicks(t *testing.T) {
	s := loaded()
	// Move to the level column.
	for s.currentKey() != ColLevel {
		s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	}
	s.Update(press("s"))
	assert.Equal(t, querytable.SortState{{Column: ColLevel, Direction: querytable.Asc}}, s.sort)
	assert.Equal(t, int64(1), s.rows[0].SessionWordID)

	s.Update(press("s"))
	assert.Equal(t, querytable.Desc, s.sort[0].Direction)

	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	s.Update(press("S"))
	require.Len(t, s.sort, 2)
	assert.Equal(t, ColCorrect, s.sort[1].Column)
	view := plain(s, 200, 20)
	assert.Contains(t, view, "↓1")
	assert.Contains(t, view, "↑2")
}

func TestHeaderKeepsSortMarkers(t *testing.T) {
	s := loaded()
	s.sort = querytable.SortState{
		{Column: ColCorrect, Direction: querytable.Desc},
		{Column: ColLevel, Direction: querytable.Asc},
	}
	s.filters[ColCorrect] = "ja"
	col, ok := s.table.Column(ColCorrect)
	require.True(t, ok)

	cell := s.headerCell(col)
	assert.Equal(t, ColumnWidth(ColCorrect), lipgloss.Width(cell))
	assert.True(t, strings.HasSuffix(strings.TrimRight(cell, " "), "↓1*"), cell)
	assert.Contains(t, cell, "…")

	s.sort = nil
	delete(s.filters, ColCorrect)
	assert.Equal(t, layout.Pad(col.Title, ColumnWidth(ColCorrect)), s.headerCell(col))
}

func TestFilterEditor(t *testing.T) {
	s := loaded()
	for s.currentKey() != ColLevel {
		s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	}
	s.Update(press("/"))
	require.Equal(t, modeFilter, s.mode)
	assert.True(t, s.HandlesEscape())

	typeText(s, ">=3")
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Equal(t, modeBrowse, s.mode)
	assert.Equal(t, ">=3", s.filters[ColLevel])
	assert.ElementsMatch(t, []int64{2, 4}, ids(s.rows))
	assert.Contains(t, plain(s, 200, 20), "2 af 4 svar")

	s.Update(press("c"))
	assert.Len(t, s.rows, 4)
}

func TestFilterEditorEscKeepsFilter(t *testing.T) {
	s := loaded()
	s.filters[ColStudent] = "bo"
	s.col = 1
	s.apply()

	s.Update(press("/"))
	assert.Equal(t, "bo", s.input.Value())
	typeText(s, "x")
	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Equal(t, "bo", s.filters[ColStudent])
	assert.Len(t, s.rows, 2)
}

func TestPicklistSeedsFilter(t *testing.T) {
	s := loaded()
	s.col = 1 // elev
	s.Update(press("p"))
	require.Equal(t, modePick, s.mode)
	require.Len(t, s.picker.Items, 2)
	assert.Equal(t, "anna", s.picker.Items[0].Label)
	assert.Equal(t, 2, s.picker.Items[0].Count)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	assert.Equal(t, modeBrowse, s.mode)
	assert.Equal(t, `"bo"`, s.filters[ColStudent])
	assert.ElementsMatch(t, []int64{3, 4}, ids(s.rows))
}

func TestEscPopsInBrowseMode(t *testing.T) {
	s := loaded()
	assert.False(t, s.HandlesEscape())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
}

func TestNarrowViewKeepsSelectedColumn(t *testing.T) {
	s := loaded()
	s.col = len(s.table.Columns) - 1
	first, last := s.visibleColumns(40)
	assert.Greater(t, first, 0)
	assert.Equal(t, len(s.table.Columns), last)
	assert.Contains(t, plain(s, 40, 12), "Kategori")
}
