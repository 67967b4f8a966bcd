package querytable

import (
	"reflect"
	"testing"
)

type row struct {
	word  string
	level any
}

func testTable() *Table[row] {
	return New(
		Column[row]{Key: "ord", Title: "Ord", Kind: Text, Value: func(r row) any { return r.word }},
		Column[row]{Key: "niveau", Title: "Niv.", Kind: Number, Value: func(r row) any { return r.level }},
	)
}

func words(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.word
	}
	return out
}

func TestApply_FilterAcrossColumns(t *testing.T) {
	rows := []row{{"katte", 12}, {"hunden", 9}, {"ko", 15}, {"kat", 10}}
	got := testTable().Apply(rows, Filters{"ord": "kat* | hund", "niveau": ">=10"}, nil)
	want := []string{"katte", "kat"}
	if !reflect.DeepEqual(words(got), want) {
		t.Errorf("got %v, want %v", words(got), want)
	}
}

func TestApply_MultiKeySort(t *testing.T) {
	rows := []row{{"b", 1}, {"a", 1}, {"c", 2}, {"d", 1}}
	st := SortState{}.Click("niveau", false).Click("ord", true).Click("ord", true)
	got := testTable().Apply(rows, nil, st)
	want := []string{"d", "b", "a", "c"}
	if !reflect.DeepEqual(words(got), want) {
		t.Errorf("got %v, want %v", words(got), want)
	}
}

func TestApply_DanishCollationAndNullsLast(t *testing.T) {
	rows := []row{{"ål", 1}, {"", 2}, {"øl", 3}, {"æg", 4}, {"zebra", 5}, {"Abe", 6}}
	tbl := testTable()
	got := tbl.Apply(rows, nil, SortState{{Column: "ord", Direction: Asc}})
	want := []string{"Abe", "zebra", "æg", "øl", "ål", ""}
	if !reflect.DeepEqual(words(got), want) {
		t.Errorf("asc got %v, want %v", words(got), want)
	}
	got = tbl.Apply(rows, nil, SortState{{Column: "ord", Direction: Desc}})
	want = []string{"ål", "øl", "æg", "zebra", "Abe", ""}
	if !reflect.DeepEqual(words(got), want) {
		t.Errorf("desc got %v, want %v", words(got), want)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	rows := []row{{"b", 2}, {"a", 1}}
	_ = testTable().Apply(rows, nil, SortState{{Column: "ord"}})
	if rows[0].word != "b" {
		t.Error("input slice was reordered")
	}
}

func TestSortState_Click(t *testing.T) {
	var s SortState
	s = s.Click("a", false)
	if !reflect.DeepEqual(s, SortState{{"a", Asc}}) {
		t.Fatalf("first click: %v", s)
	}
	s = s.Click("a", false)
	if !reflect.DeepEqual(s, SortState{{"a", Desc}}) {
		t.Fatalf("second click: %v", s)
	}
	s = s.Click("b", true)
	if !reflect.DeepEqual(s, SortState{{"a", Desc}, {"b", Asc}}) {
		t.Fatalf("multi append: %v", s)
	}
	s = s.Click("a", true)
	if !reflect.DeepEqual(s, SortState{{"a", Asc}, {"b", Asc}}) {
		t.Fatalf("multi toggle: %v", s)
	}
	s = s.Click("b", false)
	if !reflect.DeepEqual(s, SortState{{"b", Desc}}) {
		t.Fatalf("plain click on existing key: %v", s)
	}
}

func TestPicklistAndSeed(t *testing.T) {
	rows := []row{{"kat", 10}, {"hund", 2}, {"kat", 2}, {"ål", nil}}
	tbl := testTable()

	got := tbl.Picklist(rows, "niveau")
	want := []PickItem{{"2", 2}, {"10", 1}, {Empty, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("niveau picklist = %v, want %v", got, want)
	}

	got = tbl.Picklist(rows, "ord")
	want = []PickItem{{"hund", 1}, {"kat", 2}, {"ål", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ord picklist = %v, want %v", got, want)
	}

	seed := SeedFilter([]string{"kat", "ål"})
	if seed != `"kat" | "ål"` {
		t.Errorf("seed = %q", seed)
	}
	filtered := tbl.Filter(append(rows, row{"katte", 1}), Filters{"ord": seed})
	if !reflect.DeepEqual(words(filtered), []string{"kat", "kat", "ål"}) {
		t.Errorf("seeded filter = %v", words(filtered))
	}

	filtered = tbl.Filter(rows, Filters{"niveau": SeedFilter([]string{"2", Empty})})
	if !reflect.DeepEqual(words(filtered), []string{"hund", "kat", "ål"}) {
		t.Errorf("seeded number filter = %v", words(filtered))
	}
}
