package mastery

import "strings"

// Label returns a short Danish description of a mastery value.
func Label(m int) string {
	switch {
	case m <= 0:
		return "Ukendt"
	case m <= 3:
		return "Øver"
	case m <= 6:
		return "På vej"
	case m <= 8:
		return "Sikker"
	default:
		return "Mester"
	}
}

// Bar renders m as ten filled or empty cells.
func Bar(m int) string {
	m = clampMastery(m)
	return strings.Repeat("■", m) + strings.Repeat("□", MaxMastery-m)
}
