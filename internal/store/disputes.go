package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// Dispute statuses.
const (
	DisputePending  = "pending"
	DisputeApproved = "approved"
	DisputeRejected = "rejected"
)

// ErrInvalidStatus is returned for a status outside the three known ones.
var ErrInvalidStatus = errors.New("store: invalid dispute status")

// ValidStatus reports whether status is a known dispute status.
func ValidStatus(status string) bool {
	switch status {
	case DisputePending, DisputeApproved, DisputeRejected:
		return true
	}
	return false
}

// Dispute is a learner's or teacher's objection to a scored answer.
type Dispute struct {
	ID            int64   `sql:"id" json:"id"`
	SessionWordID int64   `sql:"session_word_id" json:"session_word_id"`
	SessionID     string  `sql:"session_id" json:"session_id"`
	StudentID     string  `sql:"student_id" json:"student_id"`
	Expected      string  `sql:"expected" json:"expected"`
	Recognized    string  `sql:"recognized" json:"recognized"`
	Note          string  `sql:"note" json:"note,omitempty"`
	Audio         []byte  `sql:"audio" json:"-"`
	AudioMIME     string  `sql:"audio_mime" json:"audio_mime,omitempty"`
	HasAudio      bool    `sql:"has_audio" json:"has_audio"`
	ErrorType     string  `sql:"error_type" json:"error_type,omitempty"`
	Status        string  `sql:"status" json:"status"`
	AIVerdict     string  `sql:"ai_verdict" json:"ai_verdict,omitempty"`
	AIReasoning   string  `sql:"ai_reasoning" json:"ai_reasoning,omitempty"`
	AIConfidence  float64 `sql:"ai_confidence" json:"ai_confidence,omitempty"`
	CreatedAt     int64   `sql:"created_at" json:"created_at"`
	ReviewedAt    *int64  `sql:"reviewed_at" json:"reviewed_at,omitempty"`
}

var disputeColumns = []string{
	"id", "session_word_id", "session_id", "student_id", "expected",
	"recognized", "note", "audio_mime", "error_type", "status", "ai_verdict",
	"ai_reasoning", "ai_confidence", "created_at", "reviewed_at",
	"(`audio` IS NOT NULL) AS `has_audio`",
}

// DisputeFilter narrows List.
type DisputeFilter struct {
	Status string
	Limit  int
}

// AIReview is the stored outcome of an LLM review.
type AIReview struct {
	Verdict    string
	ErrorType  string
	Reasoning  string
	Confidence float64
}

// DisputeRepo stores disputes. Audio is stored inline once claimed from the
// blob buffer.
type DisputeRepo struct{ s *Store }

// Create inserts d and returns its ID. An empty status means pending.
func (r *DisputeRepo) Create(ctx context.Context, d Dispute) (int64, error) {
	if d.Status == "" {
		d.Status = DisputePending
	}
	if !ValidStatus(d.Status) {
		return 0, ErrInvalidStatus
	}
	var audio any
	if len(d.Audio) > 0 {
		audio = d.Audio
	}
	ins := sqlite.Insert("disputes").
		Columns("session_word_id", "session_id", "student_id", "expected",
			"recognized", "note", "audio", "audio_mime", "error_type", "status",
			"created_at").
		Values(d.SessionWordID, d.SessionID, d.StudentID, d.Expected,
			d.Recognized, d.Note, audio, d.AudioMIME, d.ErrorType, d.Status,
			d.CreatedAt)
	res, err := exec(ctx, r.s.drv, ins)
	if err != nil {
		return 0, fmt.Errorf("create dispute: %w", err)
	}
	return res.LastInsertId()
}

// Get returns one dispute including its audio.
func (r *DisputeRepo) Get(ctx context.Context, id int64) (*Dispute, error) {
	q := sqlite.Select(append(disputeColumns, "audio")...).From(sqlite.Table("disputes")).
		Where(entsql.EQ("id", id))
	var rows []Dispute
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("get dispute: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// List returns disputes without audio, newest first.
func (r *DisputeRepo) List(ctx context.Context, f DisputeFilter) ([]Dispute, error) {
	q := sqlite.Select(disputeColumns...).From(sqlite.Table("disputes")).
		OrderBy(entsql.Desc("id"))
	if f.Status != "" {
		q.Where(entsql.EQ("status", f.Status))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	var rows []Dispute
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	return rows, nil
}

// SetStatus moves a dispute to status and stamps the review time.
func (r *DisputeRepo) SetStatus(ctx context.Context, id int64, status string, at time.Time) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	upd := sqlite.Update("disputes").
		Set("status", status).
		Set("reviewed_at", at.UnixMilli()).
		Where(entsql.EQ("id", id))
	return r.update(ctx, upd)
}

// SetAIReview stores an LLM verdict. An empty error type keeps the current
// one.
func (r *DisputeRepo) SetAIReview(ctx context.Context, id int64, rev AIReview, at time.Time) error {
	upd := sqlite.Update("disputes").
		Set("ai_verdict", rev.Verdict).
		Set("ai_reasoning", rev.Reasoning).
		Set("ai_confidence", rev.Confidence).
		Set("reviewed_at", at.UnixMilli()).
		Where(entsql.EQ("id", id))
	if rev.ErrorType != "" {
		upd.Set("error_type", rev.ErrorType)
	}
	return r.update(ctx, upd)
}

// SetErrorType overrides the stored error type.
func (r *DisputeRepo) SetErrorType(ctx context.Context, id int64, errorType string) error {
	upd := sqlite.Update("disputes").Set("error_type", errorType).Where(entsql.EQ("id", id))
	return r.update(ctx, upd)
}

// ClearAudio drops the stored clip. Clearing twice is not an error.
func (r *DisputeRepo) ClearAudio(ctx context.Context, id int64) error {
	upd := sqlite.Update("disputes").
		SetNull("audio").
		Set("audio_mime", "").
		Where(entsql.EQ("id", id))
	return r.update(ctx, upd)
}

func (r *DisputeRepo) update(ctx context.Context, upd *entsql.UpdateBuilder) error {
	res, err := exec(ctx, r.s.drv, upd)
	if err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
