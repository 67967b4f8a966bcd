// Package recognition turns a speech engine into a single cancellable
// "listen once" call.
package recognition

import (
	"context"
	"errors"
	"fmt"
)

// Alternative is one transcript hypothesis.
type Alternative struct {
	Text       string
	Confidence float64
}

// Result is a final recognition result. Alternatives are in the engine's
// confidence order. Raw is the engine's primary transcript when it reports
// one separately.
type Result struct {
	Alternatives []Alternative
	Raw          string
}

// EventKind identifies what an engine reported.
type EventKind int

const (
	EventResult EventKind = iota
	EventError
	EventSpeechEnd
)

// Event is a single engine notification.
type Event struct {
	Kind   EventKind
	Result Result
	Reason string
}

// Request configures one listen.
type Request struct {
	Lang            string
	MaxAlternatives int
}

// Engine is a speech recognizer. Start begins listening and returns a
// channel of events; the engine may close it at any time. Stop asks the
// engine to stop and release the microphone; it must be safe to call more
// than once and after the channel is closed.
type Engine interface {
	Name() string
	Start(ctx context.Context, req Request) (<-chan Event, error)
	Stop()
}

var (
	// ErrUnsupported means no recognition engine is available.
	ErrUnsupported = errors.New("recognition: no engine available")

	// ErrTimeout means nothing was recognized within the listen budget.
	ErrTimeout = errors.New("recognition: timed out waiting for speech")

	// ErrBusy means another listen is still outstanding on the adapter.
	ErrBusy = errors.New("recognition: listen already in progress")
)

// EngineError carries the reason an engine reported for a failure.
type EngineError struct {
	Reason string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("recognition engine: %s", e.Reason)
}

// Kind classifies a listen error for metrics and logs.
func Kind(err error) string {
	var engErr *EngineError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.As(err, &engErr):
		return "engine"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
