package querytable

import (
	"testing"
	"time"
)

func TestParseFilter_Text(t *testing.T) {
	tests := []struct {
		expr  string
		value string
		want  bool
	}{
		{"kat* | hund", "katte", true},
		{"kat* | hund", "hunden", true},
		{"kat* | hund", "ko", false},
		{"KAT*", "kat", true},
		{"*te", "katte", true},
		{"*te", "kattene", false},
		{"k*t", "kat", true},
		{"k*t", "kage", false},
		{"!kat", "hund", true},
		{"!kat", "katte", false},
		{"h* !hus", "hund", true},
		{"h* & !hus", "huset", false},
		{"kat", "katastrofe", true},
		{`"kat"`, "katte", false},
		{`"kat"`, "katastrofe", false},
		{`"kat"`, "Kat", true},
		{`"to ord" | hest`, "to ord", true},
		{`a\*b`, "a*b", true},
		{`a\*b`, "axb", false},
		{"æble*", "Æblet", true},
		{"", "alt", true},
		{" | ", "alt", true},
	}
	for _, tt := range tests {
		e := ParseFilter(Text, tt.expr)
		if got := Match(e, Text, tt.value); got != tt.want {
			t.Errorf("%q on %q = %v, want %v", tt.expr, tt.value, got, tt.want)
		}
	}
}

func TestParseFilter_Number(t *testing.T) {
	tests := []struct {
		expr  string
		value any
		want  bool
	}{
		{">=10", 10, true},
		{">=10", 9, false},
		{">= 10", 12, true},
		{">10", 10, false},
		{"<3", 2, true},
		{"<=3", 3, true},
		{"!=3", 3, false},
		{"=3", 3, true},
		{"3", 3, true},
		{"3", 4, false},
		{"2..5", 5, true},
		{"5..2", 2, true},
		{"2..5", 6, false},
		{"3 | 4", 4, true},
		{"3 | 4", 5, false},
		{`"3" | "—"`, nil, true},
		{"abc", 7, true},
		{">abc", 7, true},
		{"x..5", 100, true},
		{">=1", nil, false},
	}
	for _, tt := range tests {
		e := ParseFilter(Number, tt.expr)
		if got := Match(e, Number, tt.value); got != tt.want {
			t.Errorf("%q on %v = %v, want %v", tt.expr, tt.value, got, tt.want)
		}
	}
}

func TestParseFilter_Date(t *testing.T) {
	ts := time.Date(2026, 2, 5, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		expr string
		want bool
	}{
		{"2026-02-01..2026-02-10", true},
		{"2026-02-10..2026-02-01", true},
		{"2026-02-06..2026-02-10", false},
		{">2026-02-05", true},
		{"<2026-02-05", false},
		{"2026-02-05", true},
		{"2026-02-04 | 2026-02-05", true},
		{`"2026-02-04" | "2026-02-06"`, false},
		{"2026-02*", true},
		{"2025*", false},
		{"2026-02-01..", true},
	}
	for _, tt := range tests {
		e := ParseFilter(Date, tt.expr)
		if got := Match(e, Date, ts); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestParseFilter_Shapes(t *testing.T) {
	if _, ok := ParseFilter(Text, "a b").(And); !ok {
		t.Error("space should build And")
	}
	if _, ok := ParseFilter(Text, "a | b").(Or); !ok {
		t.Error("pipe should build Or")
	}
	if _, ok := ParseFilter(Text, "!a").(Not); !ok {
		t.Error("bang should build Not")
	}
	if _, ok := ParseFilter(Text, "a*").(Wildcard); !ok {
		t.Error("star should build Wildcard")
	}
	if _, ok := ParseFilter(Number, "1..2").(Range); !ok {
		t.Error("dots should build Range")
	}
	if _, ok := ParseFilter(Number, "<2").(Comparison); !ok {
		t.Error("operator should build Comparison")
	}
	if _, ok := ParseFilter(Number, "1 | 2").(Set); !ok {
		t.Error("number list should build Set")
	}
	if _, ok := ParseFilter(Date, "2026-01-01").(Prefix); !ok {
		t.Error("plain date should build Prefix")
	}
	if _, ok := ParseFilter(Number, "nonsense").(All); !ok {
		t.Error("unparseable number should build All")
	}
}
