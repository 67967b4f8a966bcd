package recognition

import (
	"context"
	"strings"
	"sync"
)

// TypedEngine is fed from the keyboard. The terminal UI has no microphone,
// so whatever the learner types while a listen is open becomes the
// transcript.
type TypedEngine struct {
	mu      sync.Mutex
	pending chan Event
}

// NewTypedEngine creates an idle TypedEngine.
func NewTypedEngine() *TypedEngine {
	return &TypedEngine{}
}

func (e *TypedEngine) Name() string { return "keyboard" }

// Start opens a listen. A listen that is still open is closed first.
func (e *TypedEngine) Start(_ context.Context, _ Request) (<-chan Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		close(e.pending)
	}
	e.pending = make(chan Event, 1)
	return e.pending, nil
}

// Submit delivers text to the open listen. It reports false when nothing is
// listening.
func (e *TypedEngine) Submit(text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return false
	}
	text = strings.TrimSpace(text)
	e.pending <- Event{
		Kind:   EventResult,
		Result: Result{Alternatives: []Alternative{{Text: text, Confidence: 1}}, Raw: text},
	}
	close(e.pending)
	e.pending = nil
	return true
}

// Listening reports whether a listen is open.
func (e *TypedEngine) Listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// Stop closes the open listen, if any.
func (e *TypedEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		close(e.pending)
		e.pending = nil
	}
}
