package session

import (
	"context"
	"time"

	"github.com/abhisek/laesemaskine/internal/match"
)

// WordSource loads words. band 0 means exactly level, otherwise
// |word level - level| <= band.
type WordSource interface {
	FetchWords(ctx context.Context, level, count, band int) ([]Word, error)
}

// AnswerSubmitter scores and stores an answer.
type AnswerSubmitter interface {
	SubmitAnswer(ctx context.Context, sessionID string, rec AnswerRecord) (Verdict, error)
}

// SessionFinisher closes a session and computes its result.
type SessionFinisher interface {
	FinishSession(ctx context.Context, sessionID string, estimatedLevel int) (Result, error)
}

// Listener is a single-shot speech recognizer.
type Listener interface {
	ListenOnce(ctx context.Context, lang string, timeout time.Duration) (match.Hypothesis, error)
}

// ResultSink keeps the last result for the summary screen.
type ResultSink interface {
	SaveResult(ctx context.Context, r Result) error
}

// ResultSinkFunc adapts a function to ResultSink.
type ResultSinkFunc func(ctx context.Context, r Result) error

func (f ResultSinkFunc) SaveResult(ctx context.Context, r Result) error { return f(ctx, r) }
