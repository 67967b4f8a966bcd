package results

import (
	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/querytable"
)

// Column keys of the answer table.
const (
	ColTime     = "tid"
	ColStudent  = "elev"
	ColWord     = "ord"
	ColHeard    = "hoert"
	ColCorrect  = "korrekt"
	ColLevel    = "niveau"
	ColError    = "fejltype"
	ColResponse = "svartid"
	ColCategory = "kategori"
)

// AnswerTable describes the answer rows shown in the results view and by
// the results command.
func AnswerTable() *querytable.Table[backend.AnswerItem] {
	return querytable.New(
		querytable.Column[backend.AnswerItem]{Key: ColTime, Title: "Tid", Kind: querytable.Date,
			Value: func(a backend.AnswerItem) any { return a.Timestamp.Local() }},
		querytable.Column[backend.AnswerItem]{Key: ColStudent, Title: "Elev", Kind: querytable.Text,
			Value: func(a backend.AnswerItem) any { return a.StudentID }},
		querytable.Column[backend.AnswerItem]{Key: ColWord, Title: "Ord", Kind: querytable.Text,
			Value: func(a backend.AnswerItem) any { return a.Expected }},
		querytable.Column[backend.AnswerItem]{Key: ColHeard, Title: "Hørt", Kind: querytable.Text,
			Value: func(a backend.AnswerItem) any { return a.Recognized }},
		querytable.Column[backend.AnswerItem]{Key: ColCorrect, Title: "Korrekt", Kind: querytable.Text,
			Value: func(a backend.AnswerItem) any {
				if a.Correct {
					return "ja"
				}
				return "nej"
			}},
		querytable.Column[backend.AnswerItem]{Key: ColLevel, Title: "Niveau", Kind: querytable.Number,
			Value: func(a backend.AnswerItem) any { return a.Level }},
		querytable.Column[backend.AnswerItem]{Key: ColError, Title: "Fejltype", Kind: querytable.Text,
			Value: func(a backend.AnswerItem) any { return a.ErrorType }},
		querytable.Column[backend.AnswerItem]{Key: ColResponse, Title: "Svartid", Kind: querytable.Number,
			Value: func(a backend.AnswerItem) any {
				if a.Skipped {
					return nil
				}
				return float64(a.ResponseTimeMs) / 1000
			}},
		querytable.Column[backend.AnswerItem]{Key: ColCategory, Title: "Kategori", Kind: querytable.Text,
			Value: func(a backend.AnswerItem) any { return a.InterestCategory }},
	)
}

// columnWidths are display widths in cells.
var columnWidths = map[string]int{
	ColTime:     16,
	ColStudent:  10,
	ColWord:     14,
	ColHeard:    14,
	ColCorrect:  7,
	ColLevel:    6,
	ColError:    14,
	ColResponse: 7,
	ColCategory: 10,
}

// ColumnWidth returns the display width of a column.
func ColumnWidth(key string) int {
	if w, ok := columnWidths[key]; ok {
		return w
	}
	return 12
}
