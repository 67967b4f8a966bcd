// Package mastery scores how well a learner reads at each level on a 1..10
// scale.
package mastery

import (
	"math"

	"github.com/abhisek/laesemaskine/internal/timing"
)

const (
	MinMastery = 1
	MaxMastery = 10

	// DefaultMastery is assumed for levels never seen.
	DefaultMastery = 5

	// DefaultSpeed is used when a level has no timed correct answers.
	DefaultSpeed = 0.5

	AccuracyWeight = 0.7
	SpeedWeight    = 0.3

	// Smoothing is the weight of the previous mastery when blending.
	Smoothing = 0.7
)

// Proficiency blends accuracy and speed for one level into [0,1].
func Proficiency(s timing.LevelStats) float64 {
	return AccuracyWeight*s.Accuracy() + SpeedWeight*s.Speed(DefaultSpeed)
}

// FromProficiency maps a proficiency to a mastery value.
func FromProficiency(prof float64) int {
	return clampMastery(int(math.RoundToEven(prof * 10)))
}

// Smooth blends a previous mastery with a new one.
func Smooth(old, next int) int {
	return clampMastery(int(math.RoundToEven(Smoothing*float64(old) + (1-Smoothing)*float64(next))))
}

// Overall is the mastery implied by a raw correct/total count.
func Overall(correct, total int) int {
	if total <= 0 {
		return DefaultMastery
	}
	return clampMastery(int(math.RoundToEven(float64(correct) / float64(total) * 10)))
}

// SessionSpeed averages the per-level speed means of levels that have timed
// answers, or DefaultSpeed when none do.
func SessionSpeed(stats timing.Stats) float64 {
	sum, n := 0.0, 0
	for _, s := range stats {
		if s.SpeedCount > 0 {
			sum += s.SpeedSum / float64(s.SpeedCount)
			n++
		}
	}
	if n == 0 {
		return DefaultSpeed
	}
	return sum / float64(n)
}

// SessionScore is the 0..100 score shown after a session, rounded to one
// decimal.
func SessionScore(accuracy, speed float64) float64 {
	return math.RoundToEven((AccuracyWeight*accuracy+SpeedWeight*speed)*1000) / 10
}

func clampMastery(m int) int {
	if m < MinMastery {
		return MinMastery
	}
	if m > MaxMastery {
		return MaxMastery
	}
	return m
}
