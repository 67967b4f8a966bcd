package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/laesemaskine/internal/llm"
)

// LLMEvent is a stored LLM request.
type LLMEvent struct {
	ID           int64  `sql:"id"`
	Provider     string `sql:"provider"`
	Model        string `sql:"model"`
	Purpose      string `sql:"purpose"`
	InputTokens  int    `sql:"input_tokens"`
	OutputTokens int    `sql:"output_tokens"`
	LatencyMs    int64  `sql:"latency_ms"`
	Success      bool   `sql:"success"`
	ErrorKind    string `sql:"error_kind"`
	ErrorMessage string `sql:"error_message"`
	RequestBody  string `sql:"request_body"`
	ResponseBody string `sql:"response_body"`
	CreatedAt    int64  `sql:"created_at"`
}

var eventColumns = []string{
	"id", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_kind", "error_message", "request_body",
	"response_body", "created_at",
}

// EventRepo records LLM requests.
type EventRepo struct{ s *Store }

var _ llm.EventRecorder = (*EventRepo)(nil)

func (r *EventRepo) RecordLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	at := ev.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	ins := sqlite.Insert("llm_request_events").
		Columns(eventColumns[1:]...).
		Values(ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
			ev.LatencyMs, ev.Success, ev.ErrorKind, ev.ErrorMessage,
			ev.RequestBody, ev.ResponseBody, at.UnixMilli())
	if _, err := exec(ctx, r.s.drv, ins); err != nil {
		return fmt.Errorf("record llm request: %w", err)
	}
	return nil
}

// Recent returns the latest events, newest first.
func (r *EventRepo) Recent(ctx context.Context, limit int) ([]LLMEvent, error) {
	q := sqlite.Select(eventColumns...).From(sqlite.Table("llm_request_events")).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		q.Limit(limit)
	}
	var rows []LLMEvent
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("recent llm events: %w", err)
	}
	return rows, nil
}

// Get returns one event.
func (r *EventRepo) Get(ctx context.Context, id int64) (*LLMEvent, error) {
	q := sqlite.Select(eventColumns...).From(sqlite.Table("llm_request_events")).
		Where(entsql.EQ("id", id))
	var rows []LLMEvent
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("get llm event: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}
