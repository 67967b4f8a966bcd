// Package results is the answer table: every answer, with per-column
// filters, a multi-key sort and value picklists.
package results

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/querytable"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/screen"
	"github.com/abhisek/laesemaskine/internal/ui/components"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
)

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modePick
)

type answersLoadedMsg struct {
	Items []backend.AnswerItem
	Err   error
}

// ResultsScreen shows the answer table.
type ResultsScreen struct {
	svc       backend.Backend
	studentID string
	table     *querytable.Table[backend.AnswerItem]

	all     []backend.AnswerItem
	rows    []backend.AnswerItem
	filters querytable.Filters
	sort    querytable.SortState

	col    int
	row    int
	offset int

	mode   mode
	input  components.TextInput
	picker components.Checklist

	loaded bool
	errMsg string
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)
var _ screen.EscapeHandler = (*ResultsScreen)(nil)

// New creates the results screen. An empty studentID shows every student.
func New(svc backend.Backend, studentID string) *ResultsScreen {
	return &ResultsScreen{
		svc:       svc,
		studentID: studentID,
		table:     AnswerTable(),
		filters:   querytable.Filters{},
		sort:      querytable.SortState{{Column: ColTime, Direction: querytable.Desc}},
	}
}

func (s *ResultsScreen) Init() tea.Cmd {
	return s.load()
}

func (s *ResultsScreen) load() tea.Cmd {
	svc, student := s.svc, s.studentID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		items, err := svc.Answers(ctx, backend.AnswerFilter{StudentID: student})
		return answersLoadedMsg{Items: items, Err: err}
	}
}

func (s *ResultsScreen) Title() string {
	return "Resultater"
}

// HandlesEscape reports whether Esc closes an editor instead of the screen.
func (s *ResultsScreen) HandlesEscape() bool {
	return s.mode != modeBrowse
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modeFilter:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Anvend"},
			{Key: "Esc", Description: "Annuller"},
		}
	case modePick:
		return []layout.KeyHint{
			{Key: "Mellemrum", Description: "Vælg"},
			{Key: "A", Description: "Alle"},
			{Key: "Enter", Description: "Filtrer"},
			{Key: "Esc", Description: "Annuller"},
		}
	}
	return []layout.KeyHint{
		{Key: "←→", Description: "Kolonne"},
		{Key: "/", Description: "Filter"},
		{Key: "P", Description: "Værdier"},
		{Key: "s/S", Description: "Sorter"},
		{Key: "C", Description: "Ryd"},
		{Key: "Esc", Description: "Tilbage"},
	}
}

func (s *ResultsScreen) currentKey() string {
	return s.table.Columns[s.col].Key
}

func (s *ResultsScreen) apply() {
	s.rows = s.table.Apply(s.all, s.filters, s.sort)
	if s.row >= len(s.rows) {
		s.row = max(len(s.rows)-1, 0)
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answersLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.all = msg.Items
		s.apply()
		return s, nil

	case tea.KeyMsg:
		switch s.mode {
		case modeFilter:
			return s.updateFilter(msg)
		case modePick:
			return s.updatePick(msg)
		}
		return s.updateBrowse(msg)
	}

	if s.mode == modeFilter {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ResultsScreen) updateBrowse(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return s, router.Pop()
	case "left", "h":
		if s.col > 0 {
			s.col--
		}
	case "right", "l":
		if s.col < len(s.table.Columns)-1 {
			s.col++
		}
	case "up", "k":
		if s.row > 0 {
			s.row--
		}
	case "down", "j":
		if s.row < len(s.rows)-1 {
			s.row++
		}
	case "pgdown":
		s.row = min(s.row+10, max(len(s.rows)-1, 0))
	case "pgup":
		s.row = max(s.row-10, 0)
	case "s":
		s.sort = s.sort.Click(s.currentKey(), false)
		s.apply()
	case "S":
		s.sort = s.sort.Click(s.currentKey(), true)
		s.apply()
	case "c":
		delete(s.filters, s.currentKey())
		s.apply()
	case "C":
		s.filters = querytable.Filters{}
		s.apply()
	case "r":
		return s, s.load()
	case "/":
		s.mode = modeFilter
		s.input = components.NewTextInput("fx >3, 2..5, hund*, !kat", 120)
		s.input.SetValue(s.filters[s.currentKey()])
		return s, s.input.Init()
	case "p":
		items := s.table.Picklist(s.all, s.currentKey())
		check := make([]components.CheckItem, len(items))
		for i, it := range items {
			check[i] = components.CheckItem{Label: it.Value, Count: it.Count}
		}
		col := s.table.Columns[s.col]
		s.picker = components.NewChecklist("Vælg værdier for "+col.Title, check)
		s.mode = modePick
	}
	return s, nil
}

func (s *ResultsScreen) updateFilter(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.mode = modeBrowse
		return s, nil
	case "enter":
		s.setFilter(s.input.Value())
		s.mode = modeBrowse
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ResultsScreen) updatePick(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if msg.String() == "esc" {
		s.mode = modeBrowse
		return s, nil
	}
	s.picker, _ = s.picker.Update(msg)
	if s.picker.Submitted {
		s.setFilter(querytable.SeedFilter(s.picker.Checked()))
		s.mode = modeBrowse
	}
	return s, nil
}

func (s *ResultsScreen) setFilter(raw string) {
	key := s.currentKey()
	if raw == "" {
		delete(s.filters, key)
	} else {
		s.filters[key] = raw
	}
	s.row = 0
	s.apply()
}
