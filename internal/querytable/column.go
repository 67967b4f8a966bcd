// Package querytable filters and sorts rows of any type through per-column
// filter expressions and a multi-key sort.
package querytable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind selects how a column's values are compared and filtered.
type Kind int

const (
	Text Kind = iota
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "text"
	}
}

// DateLayout is the ISO form dates are compared in.
const DateLayout = "2006-01-02T15:04:05"

// Empty is shown for missing values and selects them in a picklist filter.
const Empty = "—"

// Column describes one column of a table. Value may return nil for a
// missing value.
type Column[T any] struct {
	Key   string
	Title string
	Kind  Kind
	Value func(T) any
}

// cell is a column value normalized for comparison.
type cell struct {
	text string
	num  float64
	null bool
}

func (c Column[T]) cell(row T) cell {
	return toCell(c.Kind, c.Value(row))
}

func toCell(kind Kind, v any) cell {
	if v == nil {
		return cell{null: true}
	}
	switch kind {
	case Number:
		n, ok := toFloat(v)
		if !ok {
			return cell{null: true}
		}
		return cell{text: formatNumber(n), num: n}
	case Date:
		var s string
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return cell{null: true}
			}
			s = t.Format(DateLayout)
		case *time.Time:
			if t == nil || t.IsZero() {
				return cell{null: true}
			}
			s = t.Format(DateLayout)
		default:
			s = fmt.Sprint(v)
		}
		if s == "" {
			return cell{null: true}
		}
		return cell{text: s}
	default:
		s := fmt.Sprint(v)
		if s == "" {
			return cell{null: true}
		}
		return cell{text: s}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case *int:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Format renders the column's value for display.
func (c Column[T]) Format(row T) string {
	cl := c.cell(row)
	if cl.null {
		return Empty
	}
	return cl.text
}

// variant is the value a picklist groups on: dates by day.
func (c Column[T]) variant(row T) string {
	cl := c.cell(row)
	if cl.null {
		return Empty
	}
	if c.Kind == Date && len(cl.text) > 10 {
		return cl.text[:10]
	}
	return cl.text
}
