package timing

import "time"

// LevelStats summarizes answers at one level within a session.
type LevelStats struct {
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	SpeedSum   float64 `json:"speed_sum"`
	SpeedCount int     `json:"speed_count"`
}

// Accuracy returns Correct/Total, or 0 with no answers.
func (s LevelStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Speed returns the mean normalized speed, or def with no samples.
func (s LevelStats) Speed(def float64) float64 {
	if s.SpeedCount == 0 {
		return def
	}
	return s.SpeedSum / float64(s.SpeedCount)
}

// Stats maps a level to its session statistics. It only grows.
type Stats map[int]LevelStats

// NewStats returns an empty Stats.
func NewStats() Stats {
	return make(Stats)
}

// For returns the stats for level (zero value when unseen).
func (s Stats) For(level int) LevelStats {
	return s[level]
}

// Record adds one answer. Speed is only sampled for correct answers with a
// positive visible window.
func (s Stats) Record(level int, correct bool, response, visible time.Duration) {
	st := s[level]
	st.Total++
	if correct {
		st.Correct++
		if visible > 0 && response >= 0 {
			st.SpeedSum += SpeedNorm(response, visible)
			st.SpeedCount++
		}
	}
	s[level] = st
}

// SpeedNorm maps a response time to [0,1]: 1 for instant, 0 at or past the
// end of the visible window.
func SpeedNorm(response, visible time.Duration) float64 {
	if visible <= 0 {
		return 0
	}
	return clamp(1-float64(response)/float64(visible), 0, 1)
}
