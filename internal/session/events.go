package session

import "github.com/abhisek/laesemaskine/internal/timing"

// Phase is where the runner is within the current word.
type Phase int

const (
	PhaseIdle     Phase = iota // Not started
	PhasePreRoll               // Listening, word hidden
	PhaseExposed               // Word shown
	PhasePost                  // Word hidden again, still listening
	PhaseFeedback              // Showing the verdict
	PhaseAdvance               // Moving to the next word
	PhaseFinished              // Session over
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreRoll:
		return "pre-roll"
	case PhaseExposed:
		return "exposed"
	case PhasePost:
		return "post"
	case PhaseFeedback:
		return "feedback"
	case PhaseAdvance:
		return "advance"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// EventKind distinguishes phase transitions from countdown frames.
type EventKind int

const (
	EventPhase EventKind = iota
	EventFrame
)

// Event is delivered to the Observer. Frames come from the countdown
// goroutine, so observers must be safe for concurrent use with the caller
// of Run; the runner itself never delivers two events at once.
type Event struct {
	Kind  EventKind
	Phase Phase

	Index  int
	Total  int
	Word   Word
	Level  int
	Budget timing.Budget

	// Progress is the fraction of words completed before this one.
	Progress float64
	// Bar is the elapsed fraction of the word budget, set on frames.
	Bar float64

	// Set on PhaseFeedback.
	Heard   string
	Correct bool
	Verdict *Verdict

	// Set on PhaseFinished.
	Result *Result
}

// Observer receives runner events.
type Observer func(Event)
