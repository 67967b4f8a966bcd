package store

import (
	"context"
	"errors"
	"sort"
	"strconv"
)

// Breakdown groups.
const (
	GroupInterest     = "interessekategori"
	GroupSpelling     = "stavemoenster"
	GroupDyslexiaType = "ordblind_type"
	GroupLevel        = "niveau"
)

// UnknownKey labels answers whose word lacks the grouped attribute.
const UnknownKey = "Ukendt"

const (
	breakdownTop   = 20
	drilldownLimit = 300
)

// ErrUnknownGroup is returned for a group name outside the known set.
var ErrUnknownGroup = errors.New("store: unknown breakdown group")

// BreakdownRow is the error rate of one group key.
type BreakdownRow struct {
	Key       string  `json:"key"`
	Total     int     `json:"total"`
	Wrong     int     `json:"wrong"`
	WrongRate float64 `json:"wrong_rate"`
}

// Breakdown summarizes where a student struggles, over finished sessions.
type Breakdown struct {
	StudentID      string         `json:"student_id"`
	ByInterest     []BreakdownRow `json:"by_interessekategori"`
	BySpelling     []BreakdownRow `json:"by_stavemoenster"`
	ByDyslexiaType []BreakdownRow `json:"by_ordblind_type"`
	ByLevel        []BreakdownRow `json:"by_niveau"`
}

// GroupKey returns the value a joined answer has for group.
func GroupKey(d AnswerDetail, group string) (string, error) {
	var v string
	switch group {
	case GroupInterest:
		v = d.InterestCategory
	case GroupSpelling:
		v = d.SpellingPattern
	case GroupDyslexiaType:
		v = d.DyslexiaType
	case GroupLevel:
		v = strconv.Itoa(d.Level)
	default:
		return "", ErrUnknownGroup
	}
	if v == "" {
		return UnknownKey, nil
	}
	return v, nil
}

// DifficultyBreakdown aggregates a student's finished answers per group.
// Rows sort by wrong rate, then wrong count, then total, all descending, then
// by key; each group keeps the top twenty. Levels sort by level instead.
func (r *SessionRepo) DifficultyBreakdown(ctx context.Context, studentID string) (*Breakdown, error) {
	answers, err := r.AnswerDetails(ctx, AnswerQuery{StudentID: studentID, FinishedOnly: true})
	if err != nil {
		return nil, err
	}
	b := &Breakdown{
		StudentID:      studentID,
		ByInterest:     aggregate(answers, GroupInterest),
		BySpelling:     aggregate(answers, GroupSpelling),
		ByDyslexiaType: aggregate(answers, GroupDyslexiaType),
		ByLevel:        aggregate(answers, GroupLevel),
	}
	sortByLevel(b.ByLevel)
	return b, nil
}

// Drilldown lists a student's finished answers in one group key, newest
// first.
func (r *SessionRepo) Drilldown(ctx context.Context, studentID, group, key string) ([]AnswerDetail, error) {
	if _, err := GroupKey(AnswerDetail{}, group); err != nil {
		return nil, err
	}
	answers, err := r.AnswerDetails(ctx, AnswerQuery{StudentID: studentID, FinishedOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]AnswerDetail, 0)
	for _, a := range answers {
		if k, _ := GroupKey(a, group); k == key {
			out = append(out, a)
			if len(out) == drilldownLimit {
				break
			}
		}
	}
	return out, nil
}

func aggregate(answers []AnswerDetail, group string) []BreakdownRow {
	idx := make(map[string]int)
	rows := make([]BreakdownRow, 0)
	for _, a := range answers {
		k, _ := GroupKey(a, group)
		i, ok := idx[k]
		if !ok {
			i = len(rows)
			idx[k] = i
			rows = append(rows, BreakdownRow{Key: k})
		}
		rows[i].Total++
		if !a.Correct {
			rows[i].Wrong++
		}
	}
	for i := range rows {
		rows[i].WrongRate = float64(rows[i].Wrong) / float64(rows[i].Total)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.WrongRate != b.WrongRate:
			return a.WrongRate > b.WrongRate
		case a.Wrong != b.Wrong:
			return a.Wrong > b.Wrong
		case a.Total != b.Total:
			return a.Total > b.Total
		}
		return a.Key < b.Key
	})
	if group != GroupLevel && len(rows) > breakdownTop {
		rows = rows[:breakdownTop]
	}
	return rows
}

func sortByLevel(rows []BreakdownRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, _ := strconv.Atoi(rows[i].Key)
		b, _ := strconv.Atoi(rows[j].Key)
		return a < b
	})
}
