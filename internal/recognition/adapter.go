package recognition

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/abhisek/laesemaskine/internal/match"
)

// Adapter wraps an Engine with the listen-once contract.
type Adapter struct {
	engine Engine
	logger *slog.Logger
	busy   atomic.Bool
}

// NewAdapter creates an Adapter. A nil engine is allowed: every listen then
// fails with ErrUnsupported.
func NewAdapter(engine Engine, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{engine: engine, logger: logger}
}

// Available reports whether an engine is configured.
func (a *Adapter) Available() bool {
	return a != nil && a.engine != nil
}

// ListenOnce waits for a single result. It returns when the engine delivers
// a result or an error, when timeout elapses, or when ctx is canceled. On
// timeout and cancellation the engine is stopped so the microphone is
// released before the call returns.
func (a *Adapter) ListenOnce(ctx context.Context, lang string, timeout time.Duration) (match.Hypothesis, error) {
	if !a.Available() {
		return match.Hypothesis{}, ErrUnsupported
	}
	if !a.busy.CompareAndSwap(false, true) {
		return match.Hypothesis{}, ErrBusy
	}
	defer a.busy.Store(false)

	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	events, err := a.engine.Start(lctx, Request{Lang: lang, MaxAlternatives: match.MaxAlternatives})
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return match.Hypothesis{}, err
		}
		return match.Hypothesis{}, &EngineError{Reason: err.Error()}
	}

	stopRequested := false
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Engine ended without a result; keep waiting for the timeout.
				events = nil
				continue
			}
			switch ev.Kind {
			case EventResult:
				return hypothesisFrom(ev.Result), nil
			case EventError:
				reason := ev.Reason
				if reason == "" {
					reason = "unknown"
				}
				return match.Hypothesis{}, &EngineError{Reason: reason}
			case EventSpeechEnd:
				if !stopRequested {
					stopRequested = true
					a.engine.Stop()
				}
			}

		case <-lctx.Done():
			a.engine.Stop()
			if err := ctx.Err(); err != nil {
				return match.Hypothesis{}, err
			}
			a.logger.Debug("listen timed out", "engine", a.engine.Name(), "timeout", timeout)
			return match.Hypothesis{}, ErrTimeout
		}
	}
}

// hypothesisFrom keeps non-empty alternatives up to the cap. With no usable
// alternative the raw transcript is used.
func hypothesisFrom(r Result) match.Hypothesis {
	alts := make([]string, 0, match.MaxAlternatives)
	for _, a := range r.Alternatives {
		if len(alts) == match.MaxAlternatives {
			break
		}
		if t := strings.TrimSpace(a.Text); t != "" {
			alts = append(alts, t)
		}
	}
	if len(alts) == 0 {
		return match.Hypothesis{Text: strings.TrimSpace(r.Raw)}
	}
	return match.Hypothesis{Text: alts[0], Alternatives: alts}
}
