package session

import (
	"sort"
	"time"
)

// LevelResult is the per-level breakdown on the summary screen.
type LevelResult struct {
	Level   int
	Total   int
	Correct int
}

// Summary holds the data displayed on the summary screen.
type Summary struct {
	Result          Result
	TotalWords      int
	TotalCorrect    int
	Accuracy        float64
	AverageResponse time.Duration
	Levels          []LevelResult
	Missed          []AnswerRecord
}

// BuildSummary creates a Summary from the recorded answers and the final
// result.
func BuildSummary(records []AnswerRecord, res Result) *Summary {
	s := &Summary{Result: res, TotalWords: len(records)}
	byLevel := make(map[int]*LevelResult)
	var respSum int64
	var respCount int64
	for _, rec := range records {
		lr, ok := byLevel[rec.Level]
		if !ok {
			lr = &LevelResult{Level: rec.Level}
			byLevel[rec.Level] = lr
		}
		lr.Total++
		if rec.Correct {
			lr.Correct++
			s.TotalCorrect++
		} else {
			s.Missed = append(s.Missed, rec)
		}
		if !rec.Skipped && rec.Recognized != "" {
			respSum += rec.ResponseTimeMs
			respCount++
		}
	}
	for _, lr := range byLevel {
		s.Levels = append(s.Levels, *lr)
	}
	sort.Slice(s.Levels, func(i, j int) bool { return s.Levels[i].Level < s.Levels[j].Level })

	if s.TotalWords > 0 {
		s.Accuracy = float64(s.TotalCorrect) / float64(s.TotalWords)
	}
	if respCount > 0 {
		s.AverageResponse = time.Duration(respSum/respCount) * time.Millisecond
	}
	return s
}
