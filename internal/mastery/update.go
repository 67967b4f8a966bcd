package mastery

import "github.com/abhisek/laesemaskine/internal/timing"

// Update computes new per-level mastery from one session's stats. prev holds
// the stored values; levels missing from prev take the fresh value as is.
// Only levels with answers appear in the result.
func Update(prev map[int]int, stats timing.Stats) map[int]int {
	out := make(map[int]int, len(stats))
	for level, s := range stats {
		if s.Total <= 0 {
			continue
		}
		next := FromProficiency(Proficiency(s))
		if old, ok := prev[level]; ok {
			next = Smooth(old, next)
		}
		out[level] = next
	}
	return out
}
