package querytable

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filters holds one raw filter expression per column key.
type Filters map[string]string

// Table is a set of columns over rows of type T.
type Table[T any] struct {
	Columns []Column[T]
}

// New creates a table from its columns.
func New[T any](cols ...Column[T]) *Table[T] {
	return &Table[T]{Columns: cols}
}

// Column looks up a column by key.
func (t *Table[T]) Column(key string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Filter returns the rows matching every column filter. Filters on unknown
// columns are ignored.
func (t *Table[T]) Filter(rows []T, filters Filters) []T {
	type compiled struct {
		col  Column[T]
		expr Expr
	}
	var active []compiled
	for key, raw := range filters {
		col, ok := t.Column(key)
		if !ok {
			continue
		}
		e := ParseFilter(col.Kind, raw)
		if _, all := e.(All); all {
			continue
		}
		active = append(active, compiled{col: col, expr: e})
	}
	if len(active) == 0 {
		return append([]T(nil), rows...)
	}
	out := make([]T, 0, len(rows))
rows:
	for _, r := range rows {
		for _, a := range active {
			if !a.expr.match(a.col.cell(r)) {
				continue rows
			}
		}
		out = append(out, r)
	}
	return out
}

// Sort orders rows in place by the sort keys. The sort is stable, so rows
// that tie on every key keep their order. Missing values sort last in
// either direction.
func (t *Table[T]) Sort(rows []T, state SortState) {
	type key struct {
		col Column[T]
		dir Direction
	}
	var keys []key
	for _, k := range state {
		if col, ok := t.Column(k.Column); ok {
			keys = append(keys, key{col: col, dir: k.Direction})
		}
	}
	if len(keys) == 0 {
		return
	}
	coll := newCollator()
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, b := k.col.cell(rows[i]), k.col.cell(rows[j])
			switch {
			case a.null && b.null:
				continue
			case a.null:
				return false
			case b.null:
				return true
			}
			c := compareCells(coll, k.col.Kind, a, b)
			if c == 0 {
				continue
			}
			if k.dir == Desc {
				c = -c
			}
			return c < 0
		}
		return false
	})
}

// Apply filters then sorts, returning a new slice.
func (t *Table[T]) Apply(rows []T, filters Filters, state SortState) []T {
	out := t.Filter(rows, filters)
	t.Sort(out, state)
	return out
}

// PickItem is one distinct value of a column and how many rows carry it.
type PickItem struct {
	Value string
	Count int
}

// Picklist lists the distinct values of a column in collation order. Dates
// are grouped by day.
func (t *Table[T]) Picklist(rows []T, key string) []PickItem {
	col, ok := t.Column(key)
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range rows {
		counts[col.variant(r)]++
	}
	items := make([]PickItem, 0, len(counts))
	for v, n := range counts {
		items = append(items, PickItem{Value: v, Count: n})
	}
	coll := newCollator()
	sort.Slice(items, func(i, j int) bool {
		if col.Kind == Number {
			a, okA := toFloat(items[i].Value)
			b, okB := toFloat(items[j].Value)
			if okA && okB {
				return a < b
			}
			if okA != okB {
				return okA
			}
		}
		return coll.CompareString(items[i].Value, items[j].Value) < 0
	})
	return items
}

// SeedFilter builds an exact-value OR filter from picklist values.
func SeedFilter(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			quoted = append(quoted, `"`+v+`"`)
		}
	}
	return strings.Join(quoted, " | ")
}

func newCollator() *collate.Collator {
	return collate.New(language.Danish, collate.IgnoreCase)
}

func compareCells(coll *collate.Collator, kind Kind, a, b cell) int {
	switch kind {
	case Number:
		return compareFloat(a.num, b.num)
	case Date:
		return strings.Compare(a.text, b.text)
	default:
		return coll.CompareString(a.text, b.text)
	}
}
