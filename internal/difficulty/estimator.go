// Package difficulty tracks a learner's reading level from a rolling window
// of recent answers.
package difficulty

const (
	// MinLevel is the easiest level.
	MinLevel = 1
	// MaxLevel is the hardest level.
	MaxLevel = 30

	// WindowSize is the number of recent answers considered.
	WindowSize = 5

	// PromoteCorrect is the number of correct answers in a full window that
	// raises the level by one.
	PromoteCorrect = 4
	// DemoteWrong is the number of wrong answers in a full window that
	// lowers the level by one.
	DemoteWrong = 3
)

// Estimator adjusts the level one step at a time. The zero value is not
// usable; create one with New.
type Estimator struct {
	level  int
	window []bool
}

// New creates an Estimator starting at the given level, clamped to
// [MinLevel, MaxLevel].
func New(start int) *Estimator {
	return &Estimator{
		level:  ClampLevel(start),
		window: make([]bool, 0, WindowSize+1),
	}
}

// Record adds an answer to the window and returns the (possibly changed)
// level. Level changes are only evaluated once the window is full.
func (e *Estimator) Record(correct bool) int {
	e.window = append(e.window, correct)
	if len(e.window) > WindowSize {
		e.window = e.window[len(e.window)-WindowSize:]
	}
	if len(e.window) < WindowSize {
		return e.level
	}

	right := 0
	for _, ok := range e.window {
		if ok {
			right++
		}
	}
	wrong := len(e.window) - right

	switch {
	case right >= PromoteCorrect:
		e.level = ClampLevel(e.level + 1)
	case wrong >= DemoteWrong:
		e.level = ClampLevel(e.level - 1)
	}
	return e.level
}

// Level returns the current level.
func (e *Estimator) Level() int {
	return e.level
}

// Window returns a copy of the recent answers, oldest first.
func (e *Estimator) Window() []bool {
	out := make([]bool, len(e.window))
	copy(out, e.window)
	return out
}

// ClampLevel limits level to [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
