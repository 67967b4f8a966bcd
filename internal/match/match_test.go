package match

import "testing"

func TestNormalizeStrict(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Kat ", "kat"},
		{"  HUND!", "hund"},
		{"Æble-grød", "æblegrød"},
		{"aa", "aa"},
		{"12 Ænder", "12ænder"},
		{"", ""},
		{"é", ""},
	}
	for _, tt := range tests {
		if got := NormalizeStrict(tt.in); got != tt.want {
			t.Errorf("NormalizeStrict(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeFolded(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Aal", "ål"},
		{"aeble", "æble"},
		{"Oest", "øst"},
		{"kat", "kat"},
		{"Blaabær", "blåbær"},
	}
	for _, tt := range tests {
		if got := NormalizeFolded(tt.in); got != tt.want {
			t.Errorf("NormalizeFolded(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kat", "kat", 0},
		{"kat", "hat", 1},
		{"", "abc", 3},
		{"abc", "", 3},
		{"blåbær", "blabær", 1},
		{"hunden", "hund", 2},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsCloseEnough(t *testing.T) {
	tests := []struct {
		expected, candidate string
		want                bool
	}{
		{"hund", "hun", true},
		{"kat", "hat", false},
		{"kat", "Kat", true},
		{"hund", "hat", false},
		{"elefant", "elefan", true},
		{"elefant", "elfan", true},
		{"elefant", "elf", false},
		{"hund", "", false},
		{"", "hund", false},
		{"blåbær", "blaabær", true},
	}
	for _, tt := range tests {
		if got := IsCloseEnough(tt.expected, tt.candidate); got != tt.want {
			t.Errorf("IsCloseEnough(%q, %q) = %v, want %v", tt.expected, tt.candidate, got, tt.want)
		}
	}
}

func TestBestCandidate(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		h        Hypothesis
		want     string
	}{
		{"primary matches", "hund", Hypothesis{Text: "hund", Alternatives: []string{"hun"}}, "hund"},
		{"alternative matches", "hund", Hypothesis{Text: "and", Alternatives: []string{"kat", "hunt"}}, "hunt"},
		{"none match falls back to primary", "elefant", Hypothesis{Text: " bil ", Alternatives: []string{"bus"}}, "bil"},
		{"empty primary skipped", "kat", Hypothesis{Text: "", Alternatives: []string{"kat"}}, "kat"},
		{"nothing heard", "kat", Hypothesis{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestCandidate(tt.expected, tt.h); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		expected, heard string
		want            bool
	}{
		{"Kat ", "kat", true},
		{"kat", "hat", false},
		{"å", "aa", false},
		{"hund", "hund.", true},
		{"", "", false},
		{"kat", "", false},
	}
	for _, tt := range tests {
		if got := IsCorrect(tt.expected, tt.heard); got != tt.want {
			t.Errorf("IsCorrect(%q, %q) = %v, want %v", tt.expected, tt.heard, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("kat", "Kat"); got != 1 {
		t.Errorf("identical similarity = %f, want 1", got)
	}
	if got := Similarity("kat", ""); got != 0 {
		t.Errorf("empty similarity = %f, want 0", got)
	}
	near := Similarity("hunden", "hunde")
	far := Similarity("hunden", "bil")
	if near <= far {
		t.Errorf("similarity ordering: near %f <= far %f", near, far)
	}
}
