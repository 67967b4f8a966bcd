package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/laesemaskine/internal/diagnosis"
	"github.com/abhisek/laesemaskine/internal/difficulty"
	"github.com/abhisek/laesemaskine/internal/mastery"
	"github.com/abhisek/laesemaskine/internal/match"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
	"github.com/abhisek/laesemaskine/internal/timing"
)

// StartRequest opens a session.
type StartRequest struct {
	StudentID    string `json:"student_id"`
	StartLevel   int    `json:"start_level"`
	FeedbackMode string `json:"feedback_mode"`
	Lang         string `json:"lang,omitempty"`
}

// SessionInfo is a session header.
type SessionInfo struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"student_id"`
	FeedbackMode   string     `json:"feedback_mode"`
	StartLevel     int        `json:"start_level"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	EstimatedLevel *int       `json:"estimated_level,omitempty"`
	CorrectTotal   int        `json:"correct_total"`
	TotalWords     int        `json:"total_words"`
	Mastery        *int       `json:"mastery_1_10,omitempty"`
	Score          *float64   `json:"session_score,omitempty"`
	Accuracy       *float64   `json:"accuracy,omitempty"`
	Speed          *float64   `json:"speed,omitempty"`
	AudioKey       string     `json:"audio_key,omitempty"`
}

// AnswerItem is one answer with its word metadata and diagnosis.
type AnswerItem struct {
	SessionWordID    int64               `json:"session_word_id"`
	SessionID        string              `json:"session_id"`
	StudentID        string              `json:"student_id,omitempty"`
	WordID           int64               `json:"word_id"`
	Expected         string              `json:"expected"`
	Recognized       string              `json:"recognized"`
	Candidate        string              `json:"candidate,omitempty"`
	Correct          bool                `json:"correct"`
	Skipped          bool                `json:"skipped,omitempty"`
	ErrorType        string              `json:"error_type,omitempty"`
	Diagnostics      diagnosis.Diagnosis `json:"diagnostics"`
	Similarity       float64             `json:"similarity"`
	ResponseTimeMs   int64               `json:"response_time_ms"`
	VisibleMs        int64               `json:"visible_ms"`
	StartMs          int64               `json:"start_ms"`
	EndMs            int64               `json:"end_ms"`
	Level            int                 `json:"niveau"`
	InterestCategory string              `json:"interessekategori,omitempty"`
	SpellingPattern  string              `json:"stavemoenster,omitempty"`
	DyslexiaType     string              `json:"ordblind_type,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
}

// SessionDetail is a session with its answers in order.
type SessionDetail struct {
	Session SessionInfo  `json:"session"`
	Items   []AnswerItem `json:"items"`
}

// AnswerFilter narrows Answers.
type AnswerFilter struct {
	StudentID string
	Limit     int
}

// StudentOverview is a student's latest level and mastery at it.
type StudentOverview struct {
	StudentID     string    `json:"student_id"`
	LastLevel     int       `json:"last_level"`
	LastMastery   *int      `json:"last_mastery,omitempty"`
	LastSessionAt time.Time `json:"last_session_at"`
}

// StartSession creates a session and loads the student's mastery into the
// returned context.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (session.Context, error) {
	if req.StudentID == "" {
		return session.Context{}, fmt.Errorf("%w: student_id is required", ErrInvalidInput)
	}
	if req.FeedbackMode != session.FeedbackAfterTest {
		req.FeedbackMode = session.FeedbackPerWord
	}
	level := difficulty.ClampLevel(req.StartLevel)
	m, err := s.store.Mastery().Get(ctx, req.StudentID)
	if err != nil {
		return session.Context{}, err
	}
	sc := session.Context{
		SessionID:    uuid.NewString(),
		StudentID:    req.StudentID,
		StartLevel:   level,
		FeedbackMode: req.FeedbackMode,
		Lang:         req.Lang,
		Mastery:      m,
	}
	err = s.store.Sessions().Create(ctx, store.Session{
		ID:           sc.SessionID,
		StudentID:    sc.StudentID,
		StartLevel:   sc.StartLevel,
		FeedbackMode: sc.FeedbackMode,
		StartedAt:    s.now().UnixMilli(),
	})
	if err != nil {
		return session.Context{}, err
	}
	if sc.Lang == "" {
		sc.Lang = "da-DK"
	}
	s.logger.Info("session started", "session_id", sc.SessionID, "student", sc.StudentID, "level", level)
	return sc, nil
}

// SubmitAnswer scores rec against the word with strict normalization, which
// is authoritative over the client's own verdict.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID string, rec session.AnswerRecord) (session.Verdict, error) {
	expected := rec.Word.Text
	correct := match.IsCorrect(expected, rec.Recognized)
	diag := s.diag.Diagnose(expected, rec.Recognized)
	diag.Correct = correct

	level := rec.Word.Level
	if level <= 0 {
		level = rec.Level
	}
	id, err := s.store.Sessions().AddAnswer(ctx, store.Answer{
		SessionID:  sessionID,
		WordID:     rec.Word.ID,
		Expected:   expected,
		Recognized: rec.Recognized,
		Candidate:  rec.Candidate,
		Correct:    correct,
		Level:      level,
		ResponseMs: rec.ResponseTimeMs,
		VisibleMs:  rec.VisibleMs,
		StartMs:    rec.StartMs,
		EndMs:      rec.EndMs,
		Skipped:    rec.Skipped,
		ErrorType:  string(diag.ErrorType),
		CreatedAt:  s.now().UnixMilli(),
	})
	if err != nil {
		return session.Verdict{}, fmt.Errorf("store answer: %w", err)
	}
	return session.Verdict{SessionWordID: id, Correct: correct, Diagnostics: diag}, nil
}

// FinishSession closes the session, updates per-level mastery and computes
// the session score. The overall mastery from the raw hit rate is kept for
// the estimated level only when no answer in this session was at that level.
func (s *Service) FinishSession(ctx context.Context, sessionID string, estimatedLevel int) (session.Result, error) {
	sessions := s.store.Sessions()
	sess, err := sessions.Get(ctx, sessionID)
	if err != nil {
		return session.Result{}, err
	}
	answers, err := sessions.Answers(ctx, sessionID)
	if err != nil {
		return session.Result{}, err
	}
	estimatedLevel = difficulty.ClampLevel(estimatedLevel)

	stats := timing.NewStats()
	correct := 0
	for _, a := range answers {
		level := a.Level
		if level <= 0 {
			level = estimatedLevel
		}
		stats.Record(level, a.Correct, msDuration(a.ResponseMs), msDuration(a.VisibleMs))
		if a.Correct {
			correct++
		}
	}
	total := len(answers)

	prev, err := s.store.Mastery().Get(ctx, sess.StudentID)
	if err != nil {
		return session.Result{}, err
	}
	next := mastery.Update(prev, stats)
	overall := mastery.Overall(correct, total)
	if _, ok := next[estimatedLevel]; !ok && total > 0 {
		next[estimatedLevel] = overall
	}
	now := s.now()
	if err := s.store.Mastery().Set(ctx, sess.StudentID, next, now); err != nil {
		return session.Result{}, err
	}

	accuracy := 0.0
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	speed := mastery.SessionSpeed(stats)
	score := mastery.SessionScore(accuracy, speed)

	err = sessions.Finish(ctx, store.FinishParams{
		ID:             sessionID,
		EstimatedLevel: estimatedLevel,
		Mastery:        overall,
		Score:          score,
		Accuracy:       accuracy,
		Speed:          speed,
		At:             now,
	})
	if err != nil {
		return session.Result{}, err
	}
	s.logger.Info("session finished",
		"session_id", sessionID, "level", estimatedLevel,
		"correct", correct, "total", total, "score", score)

	res := session.Result{
		SessionID:      sessionID,
		EstimatedLevel: estimatedLevel,
		CorrectTotal:   correct,
		TotalWords:     total,
		Accuracy:       &accuracy,
		Speed:          &speed,
		Score:          &score,
	}
	if total > 0 {
		res.Mastery = &overall
	}
	return res, nil
}

// SaveResult links the flushed session audio to the session.
func (s *Service) SaveResult(ctx context.Context, r session.Result) error {
	if r.AudioKey == "" {
		return nil
	}
	return s.store.Sessions().SetAudioKey(ctx, r.SessionID, r.AudioKey)
}

// Session returns a session and its answers.
func (s *Service) Session(ctx context.Context, id string) (*SessionDetail, error) {
	sess, err := s.store.Sessions().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.Sessions().Answers(ctx, id)
	if err != nil {
		return nil, err
	}
	words := make(map[int64]*store.Word)
	items := make([]AnswerItem, 0, len(answers))
	for _, a := range answers {
		w, ok := words[a.WordID]
		if !ok {
			w, err = s.store.Words().Get(ctx, a.WordID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			words[a.WordID] = w
		}
		d := store.AnswerDetail{Answer: a, StudentID: sess.StudentID}
		if w != nil {
			d.InterestCategory = w.InterestCategory
			d.SpellingPattern = w.SpellingPattern
			d.DyslexiaType = w.DyslexiaType
		}
		items = append(items, s.answerItem(d))
	}
	return &SessionDetail{Session: sessionInfo(*sess), Items: items}, nil
}

// ListSessions returns a student's latest finished sessions.
func (s *Service) ListSessions(ctx context.Context, studentID string) ([]SessionInfo, error) {
	rows, err := s.store.Sessions().ListByStudent(ctx, studentID, SessionListLimit)
	if err != nil {
		return nil, err
	}
	out := make([]SessionInfo, len(rows))
	for i, r := range rows {
		out[i] = sessionInfo(r)
	}
	return out, nil
}

// Answers returns answers across sessions, newest first.
func (s *Service) Answers(ctx context.Context, f AnswerFilter) ([]AnswerItem, error) {
	rows, err := s.store.Sessions().AnswerDetails(ctx, store.AnswerQuery{StudentID: f.StudentID, Limit: f.Limit})
	if err != nil {
		return nil, err
	}
	return s.answerItems(rows), nil
}

// Overview lists every student with their latest level and the mastery
// stored for it.
func (s *Service) Overview(ctx context.Context) ([]StudentOverview, error) {
	latest, err := s.store.Sessions().LatestPerStudent(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StudentOverview, 0, len(latest))
	for _, sess := range latest {
		o := StudentOverview{StudentID: sess.StudentID}
		if sess.FinishedAt != nil {
			o.LastSessionAt = time.UnixMilli(*sess.FinishedAt)
		}
		if sess.EstimatedLevel != nil {
			o.LastLevel = *sess.EstimatedLevel
			m, err := s.store.Mastery().Get(ctx, sess.StudentID)
			if err != nil {
				return nil, err
			}
			if v, ok := m[o.LastLevel]; ok {
				o.LastMastery = &v
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Service) answerItems(rows []store.AnswerDetail) []AnswerItem {
	out := make([]AnswerItem, len(rows))
	for i, d := range rows {
		out[i] = s.answerItem(d)
	}
	return out
}

func (s *Service) answerItem(d store.AnswerDetail) AnswerItem {
	diag := s.diag.Diagnose(d.Expected, d.Recognized)
	diag.Correct = d.Correct
	return AnswerItem{
		SessionWordID:    d.ID,
		SessionID:        d.SessionID,
		StudentID:        d.StudentID,
		WordID:           d.WordID,
		Expected:         d.Expected,
		Recognized:       d.Recognized,
		Candidate:        d.Candidate,
		Correct:          d.Correct,
		Skipped:          d.Skipped,
		ErrorType:        d.ErrorType,
		Diagnostics:      diag,
		Similarity:       match.Similarity(d.Expected, d.Recognized),
		ResponseTimeMs:   d.ResponseMs,
		VisibleMs:        d.VisibleMs,
		StartMs:          d.StartMs,
		EndMs:            d.EndMs,
		Level:            d.Level,
		InterestCategory: d.InterestCategory,
		SpellingPattern:  d.SpellingPattern,
		DyslexiaType:     d.DyslexiaType,
		Timestamp:        time.UnixMilli(d.CreatedAt),
	}
}

func sessionInfo(r store.Session) SessionInfo {
	info := SessionInfo{
		ID:             r.ID,
		StudentID:      r.StudentID,
		FeedbackMode:   r.FeedbackMode,
		StartLevel:     r.StartLevel,
		StartedAt:      r.Started(),
		EstimatedLevel: r.EstimatedLevel,
		CorrectTotal:   r.CorrectTotal,
		TotalWords:     r.TotalWords,
		Mastery:        r.Mastery,
		Score:          r.Score,
		Accuracy:       r.Accuracy,
		Speed:          r.Speed,
		AudioKey:       r.AudioKey,
	}
	if r.FinishedAt != nil {
		t := time.UnixMilli(*r.FinishedAt)
		info.EndedAt = &t
	}
	return info
}

func msDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }
