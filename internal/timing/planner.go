// Package timing computes how long each word is exposed to the reader.
package timing

import (
	"math"
	"time"
)

const (
	// PreRoll is the pause before a word is shown. Listening already runs.
	PreRoll = 2000 * time.Millisecond
	// PostRoll is the silence after the visible window closes.
	PostRoll = 2000 * time.Millisecond

	// MinTotal and MaxTotal bound the full per-word budget.
	MinTotal = 7000 * time.Millisecond
	MaxTotal = 15000 * time.Millisecond

	// MinVisible and MaxVisible bound how long the word stays on screen.
	MinVisible = 3000 * time.Millisecond
	MaxVisible = 11000 * time.Millisecond

	// DefaultMastery is used when a level has no valid mastery score.
	DefaultMastery = 5

	baseEasyMs = 12000.0
	baseHardMs = 7000.0

	masteryLowMs  = 3000.0
	masteryHighMs = -2000.0

	slowAccuracy = 0.70
	fastAccuracy = 0.90
	slowPenalty  = 6000.0
	fastBonus    = 3000.0
)

// Budget is the time allotted to one word.
type Budget struct {
	Total   time.Duration
	Visible time.Duration
}

// BaseTotal interpolates from 12s at level 1 to 7s at level 30.
func BaseTotal(level int) time.Duration {
	t := clamp(float64(level-1)/29, 0, 1)
	return ms(lerp(baseEasyMs, baseHardMs, t))
}

// MasteryAdjustment adds time for weak levels and removes it for strong
// ones: +3s at mastery 1, -2s at mastery 10. Values outside 1..10 count as
// DefaultMastery.
func MasteryAdjustment(mastery int) time.Duration {
	if mastery < 1 || mastery > 10 {
		mastery = DefaultMastery
	}
	t := clamp(float64(mastery-1)/9, 0, 1)
	return ms(lerp(masteryLowMs, masteryHighMs, t))
}

// PerformanceAdjustment reacts to accuracy observed at this level during
// the current session.
func PerformanceAdjustment(s LevelStats) time.Duration {
	if s.Total == 0 {
		return 0
	}
	acc := s.Accuracy()
	switch {
	case acc < slowAccuracy:
		return ms((slowAccuracy - acc) * slowPenalty)
	case acc > fastAccuracy:
		return ms(-(acc - fastAccuracy) * fastBonus)
	default:
		return 0
	}
}

// Plan returns the budget for a word at level given the learner's mastery
// of that level and the stats gathered so far.
func Plan(level, mastery int, s LevelStats) Budget {
	total := BaseTotal(level) + MasteryAdjustment(mastery) + PerformanceAdjustment(s)
	total = clampDuration(total, MinTotal, MaxTotal)
	visible := clampDuration(total-(PreRoll+PostRoll), MinVisible, MaxVisible)
	return Budget{Total: total, Visible: visible}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// ms rounds a millisecond count half away from zero.
func ms(v float64) time.Duration {
	return time.Duration(math.Round(v)) * time.Millisecond
}
