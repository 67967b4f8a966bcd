package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ErrSessionFinished is returned when an answer targets a closed session.
var ErrSessionFinished = errors.New("store: session already finished")

// Session is one training session.
type Session struct {
	ID             string   `sql:"id"`
	StudentID      string   `sql:"student_id"`
	StartLevel     int      `sql:"start_level"`
	FeedbackMode   string   `sql:"feedback_mode"`
	StartedAt      int64    `sql:"started_at"`
	FinishedAt     *int64   `sql:"finished_at"`
	EstimatedLevel *int     `sql:"estimated_level"`
	CorrectTotal   int      `sql:"correct_total"`
	TotalWords     int      `sql:"total_words"`
	Mastery        *int     `sql:"mastery"`
	Score          *float64 `sql:"score"`
	Accuracy       *float64 `sql:"accuracy"`
	Speed          *float64 `sql:"speed"`
	AudioKey       string   `sql:"audio_key"`
}

var sessionColumns = []string{
	"id", "student_id", "start_level", "feedback_mode", "started_at",
	"finished_at", "estimated_level", "correct_total", "total_words",
	"mastery", "score", "accuracy", "speed", "audio_key",
}

// Finished reports whether the session has been closed.
func (s *Session) Finished() bool { return s.FinishedAt != nil }

func (s *Session) Started() time.Time { return time.UnixMilli(s.StartedAt) }

// Answer is one scored word within a session.
type Answer struct {
	ID         int64  `sql:"id"`
	SessionID  string `sql:"session_id"`
	WordID     int64  `sql:"word_id"`
	Expected   string `sql:"expected"`
	Recognized string `sql:"recognized"`
	Candidate  string `sql:"candidate"`
	Correct    bool   `sql:"correct"`
	Level      int    `sql:"level"`
	ResponseMs int64  `sql:"response_ms"`
	VisibleMs  int64  `sql:"visible_ms"`
	StartMs    int64  `sql:"start_ms"`
	EndMs      int64  `sql:"end_ms"`
	Skipped    bool   `sql:"skipped"`
	ErrorType  string `sql:"error_type"`
	CreatedAt  int64  `sql:"created_at"`
}

var answerColumns = []string{
	"id", "session_id", "word_id", "expected", "recognized", "candidate",
	"correct", "level", "response_ms", "visible_ms", "start_ms", "end_ms",
	"skipped", "error_type", "created_at",
}

// AnswerDetail is an answer joined with its session owner and word metadata.
type AnswerDetail struct {
	Answer
	StudentID        string `sql:"student_id"`
	SessionFinished  bool   `sql:"session_finished"`
	InterestCategory string `sql:"interest_category"`
	SpellingPattern  string `sql:"spelling_pattern"`
	DyslexiaType     string `sql:"dyslexia_type"`
}

// FinishParams closes a session.
type FinishParams struct {
	ID             string
	EstimatedLevel int
	Mastery        int
	Score          float64
	Accuracy       float64
	Speed          float64
	AudioKey       string
	At             time.Time
}

// AnswerQuery selects joined answers.
type AnswerQuery struct {
	StudentID    string
	FinishedOnly bool
	Limit        int
}

// SessionRepo stores sessions and their answers.
type SessionRepo struct{ s *Store }

func (r *SessionRepo) Create(ctx context.Context, sess Session) error {
	ins := sqlite.Insert("sessions").
		Columns("id", "student_id", "start_level", "feedback_mode", "started_at").
		Values(sess.ID, sess.StudentID, sess.StartLevel, sess.FeedbackMode, sess.StartedAt)
	if _, err := exec(ctx, r.s.drv, ins); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns one session or ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	return r.get(ctx, r.s.drv, id)
}

func (r *SessionRepo) get(ctx context.Context, eq dialect.ExecQuerier, id string) (*Session, error) {
	q := sqlite.Select(sessionColumns...).From(sqlite.Table("sessions")).Where(entsql.EQ("id", id))
	var rows []Session
	if err := scan(ctx, eq, q, &rows); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// AddAnswer stores an answer and bumps the session totals. It returns the
// new session word ID.
func (r *SessionRepo) AddAnswer(ctx context.Context, a Answer) (int64, error) {
	var id int64
	err := r.s.inTx(ctx, func(tx dialect.Tx) error {
		sess, err := r.get(ctx, tx, a.SessionID)
		if err != nil {
			return err
		}
		if sess.Finished() {
			return ErrSessionFinished
		}
		ins := sqlite.Insert("session_words").
			Columns(answerColumns[1:]...).
			Values(a.SessionID, a.WordID, a.Expected, a.Recognized, a.Candidate,
				a.Correct, a.Level, a.ResponseMs, a.VisibleMs, a.StartMs, a.EndMs,
				a.Skipped, a.ErrorType, a.CreatedAt)
		res, err := exec(ctx, tx, ins)
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		correct := 0
		if a.Correct {
			correct = 1
		}
		upd := sqlite.Update("sessions").
			Add("total_words", 1).
			Add("correct_total", correct).
			Where(entsql.EQ("id", a.SessionID))
		if _, err := exec(ctx, tx, upd); err != nil {
			return fmt.Errorf("update totals: %w", err)
		}
		return nil
	})
	return id, err
}

// Finish records the session result. Finishing twice overwrites the result.
func (r *SessionRepo) Finish(ctx context.Context, p FinishParams) error {
	upd := sqlite.Update("sessions").
		Set("finished_at", p.At.UnixMilli()).
		Set("estimated_level", p.EstimatedLevel).
		Set("mastery", p.Mastery).
		Set("score", p.Score).
		Set("accuracy", p.Accuracy).
		Set("speed", p.Speed).
		Where(entsql.EQ("id", p.ID))
	if p.AudioKey != "" {
		upd.Set("audio_key", p.AudioKey)
	}
	res, err := exec(ctx, r.s.drv, upd)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAudioKey links a session to its recording in the blob buffer.
func (r *SessionRepo) SetAudioKey(ctx context.Context, id, key string) error {
	upd := sqlite.Update("sessions").Set("audio_key", key).Where(entsql.EQ("id", id))
	res, err := exec(ctx, r.s.drv, upd)
	if err != nil {
		return fmt.Errorf("set audio key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestPerStudent returns each student's most recently finished session,
// newest first.
func (r *SessionRepo) LatestPerStudent(ctx context.Context) ([]Session, error) {
	q := sqlite.Select(sessionColumns...).From(sqlite.Table("sessions")).
		Where(entsql.NotNull("finished_at")).
		OrderBy(entsql.Desc("finished_at"))
	var rows []Session
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("latest sessions: %w", err)
	}
	seen := make(map[string]bool)
	out := rows[:0]
	for _, sess := range rows {
		if seen[sess.StudentID] {
			continue
		}
		seen[sess.StudentID] = true
		out = append(out, sess)
	}
	return out, nil
}

// ListByStudent returns the latest finished sessions, newest first.
func (r *SessionRepo) ListByStudent(ctx context.Context, studentID string, limit int) ([]Session, error) {
	q := sqlite.Select(sessionColumns...).From(sqlite.Table("sessions")).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.NotNull("finished_at"))).
		OrderBy(entsql.Desc("finished_at"))
	if limit > 0 {
		q.Limit(limit)
	}
	var rows []Session
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return rows, nil
}

// Answers returns a session's answers in the order they were given.
func (r *SessionRepo) Answers(ctx context.Context, sessionID string) ([]Answer, error) {
	q := sqlite.Select(answerColumns...).From(sqlite.Table("session_words")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("id")
	var rows []Answer
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return rows, nil
}

// AnswerByID returns one joined answer or ErrNotFound.
func (r *SessionRepo) AnswerByID(ctx context.Context, id int64) (*AnswerDetail, error) {
	q, sw, _ := detailSelect()
	q.Where(entsql.EQ(sw.C("id"), id))
	var rows []AnswerDetail
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("get answer: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// AnswerDetails returns joined answers, newest first.
func (r *SessionRepo) AnswerDetails(ctx context.Context, aq AnswerQuery) ([]AnswerDetail, error) {
	q, sw, s := detailSelect()
	var preds []*entsql.Predicate
	if aq.StudentID != "" {
		preds = append(preds, entsql.EQ(s.C("student_id"), aq.StudentID))
	}
	if aq.FinishedOnly {
		preds = append(preds, entsql.NotNull(s.C("finished_at")))
	}
	if len(preds) > 0 {
		q.Where(entsql.And(preds...))
	}
	q.OrderBy(entsql.Desc(sw.C("id")))
	if aq.Limit > 0 {
		q.Limit(aq.Limit)
	}
	var rows []AnswerDetail
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("list answer details: %w", err)
	}
	return rows, nil
}

func detailSelect() (q *entsql.Selector, sw, s *entsql.SelectTable) {
	sw = sqlite.Table("session_words").As("sw")
	s = sqlite.Table("sessions").As("s")
	w := sqlite.Table("words").As("w")
	cols := make([]string, 0, len(answerColumns)+5)
	for _, c := range answerColumns {
		cols = append(cols, sw.C(c))
	}
	cols = append(cols,
		s.C("student_id"),
		"(`s`.`finished_at` IS NOT NULL) AS `session_finished`",
		w.C("interest_category"),
		w.C("spelling_pattern"),
		w.C("dyslexia_type"),
	)
	q = sqlite.Select(cols...).
		From(sw).
		Join(s).On(sw.C("session_id"), s.C("id")).
		LeftJoin(w).On(sw.C("word_id"), w.C("id"))
	return q, sw, s
}
