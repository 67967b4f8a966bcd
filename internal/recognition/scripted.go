package recognition

import (
	"context"
	"sync"
	"time"
)

// Step scripts one listen of a ScriptedEngine.
type Step struct {
	Delay        time.Duration
	Alternatives []string
	Raw          string
	// Fail makes the engine report an error with this reason.
	Fail string
	// SpeechEnd emits a speech-end signal before the outcome.
	SpeechEnd bool
	// Silent never reports anything; the listen runs into its timeout.
	Silent bool
}

// ScriptedEngine replays canned steps in FIFO order. Once the script is
// exhausted every listen is silent. It is used by tests and the demo mode.
type ScriptedEngine struct {
	mu     sync.Mutex
	steps  []Step
	starts int
	stops  int
	stop   func()
}

// NewScriptedEngine creates an engine with the given steps.
func NewScriptedEngine(steps ...Step) *ScriptedEngine {
	return &ScriptedEngine{steps: steps}
}

func (e *ScriptedEngine) Name() string { return "scripted" }

// Start begins the next scripted step.
func (e *ScriptedEngine) Start(ctx context.Context, _ Request) (<-chan Event, error) {
	e.mu.Lock()
	step := Step{Silent: true}
	if len(e.steps) > 0 {
		step = e.steps[0]
		e.steps = e.steps[1:]
	}
	e.starts++
	stopped := make(chan struct{})
	var once sync.Once
	e.stop = func() { once.Do(func() { close(stopped) }) }
	e.mu.Unlock()

	ch := make(chan Event, 2)
	go func() {
		defer close(ch)
		select {
		case <-time.After(step.Delay):
		case <-stopped:
			return
		case <-ctx.Done():
			return
		}
		if step.Silent {
			select {
			case <-stopped:
			case <-ctx.Done():
			}
			return
		}
		if step.SpeechEnd {
			ch <- Event{Kind: EventSpeechEnd}
		}
		if step.Fail != "" {
			ch <- Event{Kind: EventError, Reason: step.Fail}
			return
		}
		res := Result{Raw: step.Raw}
		for i, text := range step.Alternatives {
			res.Alternatives = append(res.Alternatives, Alternative{
				Text:       text,
				Confidence: 1 / float64(i+1),
			})
		}
		ch <- Event{Kind: EventResult, Result: res}
	}()
	return ch, nil
}

// Stop stops the current step.
func (e *ScriptedEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	if e.stop != nil {
		e.stop()
	}
}

// Starts returns how many listens were started.
func (e *ScriptedEngine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Stops returns how many times Stop was called.
func (e *ScriptedEngine) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}
