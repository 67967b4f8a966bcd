// Package match compares the word a reader was shown with what the speech
// recognizer heard.
//
// Two normalizers exist on purpose. NormalizeStrict feeds IsCorrect, which
// decides the scored outcome. NormalizeFolded additionally folds the Danish
// digraphs aa, ae and oe and only feeds the advisory helpers (IsCloseEnough,
// BestCandidate, Similarity).
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// MaxAlternatives is the number of recognizer hypotheses considered.
const MaxAlternatives = 5

// Hypothesis is a recognizer result: the primary transcript followed by
// alternatives in the engine's confidence order.
type Hypothesis struct {
	Text         string   `json:"text"`
	Alternatives []string `json:"alternatives,omitempty"`
}

var digraphs = strings.NewReplacer("aa", "å", "ae", "æ", "oe", "ø")

// NormalizeStrict lowercases s and drops everything outside [a-z0-9æøå].
func NormalizeStrict(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeFolded is NormalizeStrict followed by digraph folding
// (aa→å, ae→æ, oe→ø).
func NormalizeFolded(s string) string {
	return digraphs.Replace(NormalizeStrict(s))
}

func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == 'æ', r == 'ø', r == 'å':
		return true
	}
	return false
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	return matchr.Levenshtein(a, b)
}

// IsCloseEnough reports whether candidate is an acceptable reading of
// expected. Tolerance grows with word length: two edits from seven letters,
// one edit from four, none below that.
func IsCloseEnough(expected, candidate string) bool {
	e := NormalizeFolded(expected)
	c := NormalizeFolded(candidate)
	if e == "" || c == "" {
		return false
	}
	if e == c {
		return true
	}

	dist := Levenshtein(e, c)
	switch n := utf8.RuneCountInString(e); {
	case n >= 7:
		return dist <= 2
	case n >= 4:
		return dist <= 1
	default:
		return false
	}
}

// BestCandidate picks the first hypothesis that is close enough to
// expected, scanning the primary transcript before the alternatives. When
// none qualifies it returns the primary transcript, trimmed.
func BestCandidate(expected string, h Hypothesis) string {
	candidates := make([]string, 0, len(h.Alternatives)+1)
	for _, s := range append([]string{h.Text}, h.Alternatives...) {
		if strings.TrimSpace(s) != "" {
			candidates = append(candidates, s)
		}
	}
	for _, c := range candidates {
		if IsCloseEnough(expected, c) {
			return c
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return strings.TrimSpace(candidates[0])
}

// IsCorrect is the scoring comparison: strict normalized equality.
// Digraph folding does not apply, so "å" and "aa" differ.
func IsCorrect(expected, heard string) bool {
	e := NormalizeStrict(expected)
	return e != "" && e == NormalizeStrict(heard)
}

// Similarity returns a Jaro-Winkler score in [0,1] over folded forms.
// It is shown next to results and never affects scoring.
func Similarity(expected, heard string) float64 {
	e := NormalizeFolded(expected)
	h := NormalizeFolded(heard)
	if e == "" || h == "" {
		return 0
	}
	if e == h {
		return 1
	}
	return matchr.JaroWinkler(e, h, false)
}
