package querytable

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

func (d Direction) flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// SortKey orders by one column.
type SortKey struct {
	Column    string
	Direction Direction
}

// SortState is a priority-ordered list of sort keys.
type SortState []SortKey

// Index returns the position of column in the state, or -1.
func (s SortState) Index(column string) int {
	for i, k := range s {
		if k.Column == column {
			return i
		}
	}
	return -1
}

// Click returns the state after a header click. A plain click makes column
// the only key, flipping its direction if it already was a key. A multi
// click appends column ascending, or flips it in place.
func (s SortState) Click(column string, multi bool) SortState {
	idx := s.Index(column)
	if !multi {
		dir := Asc
		if idx >= 0 {
			dir = s[idx].Direction.flip()
		}
		return SortState{{Column: column, Direction: dir}}
	}
	out := make(SortState, len(s), len(s)+1)
	copy(out, s)
	if idx < 0 {
		return append(out, SortKey{Column: column, Direction: Asc})
	}
	out[idx].Direction = out[idx].Direction.flip()
	return out
}
