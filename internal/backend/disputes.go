package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/diagnosis"
	"github.com/abhisek/laesemaskine/internal/store"
)

// DisputeRequest objects to the scoring of one answer. Audio is an optional
// clip; without one the session recording is attached when the blob buffer
// still holds it.
type DisputeRequest struct {
	SessionWordID int64  `json:"session_word_id"`
	Note          string `json:"note,omitempty"`
	Audio         []byte `json:"audio,omitempty"`
	AudioMIME     string `json:"audio_mime,omitempty"`
	AudioKey      string `json:"audio_key,omitempty"`
}

// CreateDispute stores a pending dispute with the answer's expected and
// recognized text and error type.
func (s *Service) CreateDispute(ctx context.Context, req DisputeRequest) (*store.Dispute, error) {
	if req.SessionWordID <= 0 {
		return nil, fmt.Errorf("%w: session_word_id is required", ErrInvalidInput)
	}
	ans, err := s.store.Sessions().AnswerByID(ctx, req.SessionWordID)
	if err != nil {
		return nil, err
	}

	audio, mime := req.Audio, req.AudioMIME
	if len(audio) == 0 {
		key := req.AudioKey
		if key == "" {
			sess, err := s.store.Sessions().Get(ctx, ans.SessionID)
			if err != nil {
				return nil, err
			}
			key = sess.AudioKey
		}
		if key != "" {
			b, err := s.blobs.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("load session audio: %w", err)
			}
			if b != nil {
				audio, mime = b.Data, b.MIME
			}
		}
	}

	id, err := s.store.Disputes().Create(ctx, store.Dispute{
		SessionWordID: ans.ID,
		SessionID:     ans.SessionID,
		StudentID:     ans.StudentID,
		Expected:      ans.Expected,
		Recognized:    ans.Recognized,
		Note:          strings.TrimSpace(req.Note),
		Audio:         audio,
		AudioMIME:     mime,
		ErrorType:     ans.ErrorType,
		CreatedAt:     s.now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("dispute created", "dispute_id", id, "session_word_id", ans.ID, "audio", len(audio) > 0)
	return s.store.Disputes().Get(ctx, id)
}

// Disputes lists disputes newest first, at most DisputeListLimit.
func (s *Service) Disputes(ctx context.Context, f store.DisputeFilter) ([]store.Dispute, error) {
	if f.Limit <= 0 || f.Limit > DisputeListLimit {
		f.Limit = DisputeListLimit
	}
	if f.Status != "" && !store.ValidStatus(f.Status) {
		return nil, store.ErrInvalidStatus
	}
	return s.store.Disputes().List(ctx, f)
}

// DisputeAudio returns the dispute's clip, or nil when it has none.
func (s *Service) DisputeAudio(ctx context.Context, id int64) (*blob.Blob, error) {
	d, err := s.store.Disputes().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(d.Audio) == 0 {
		return nil, nil
	}
	return &blob.Blob{
		Key:       fmt.Sprintf("dispute_%d", d.ID),
		Data:      d.Audio,
		MIME:      d.AudioMIME,
		CreatedAt: time.UnixMilli(d.CreatedAt),
	}, nil
}

// ReviewDispute sets the status to approved, rejected or pending.
func (s *Service) ReviewDispute(ctx context.Context, id int64, status string) error {
	if err := s.store.Disputes().SetStatus(ctx, id, status, s.now()); err != nil {
		return err
	}
	s.logger.Info("dispute reviewed", "dispute_id", id, "status", status)
	return nil
}

// DeleteDisputeAudio drops the dispute's clip. Deleting twice is fine.
func (s *Service) DeleteDisputeAudio(ctx context.Context, id int64) error {
	return s.store.Disputes().ClearAudio(ctx, id)
}

// SendToAI approves the dispute, optionally overriding its error type, and
// queues an LLM review when one is configured. It reports whether a review
// was queued.
func (s *Service) SendToAI(ctx context.Context, id int64, errorType string) (bool, error) {
	if errorType != "" && !diagnosis.ErrorType(errorType).Valid() {
		return false, fmt.Errorf("%w: unknown error type %q", ErrInvalidInput, errorType)
	}
	disputes := s.store.Disputes()
	d, err := disputes.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if err := disputes.SetStatus(ctx, id, store.DisputeApproved, s.now()); err != nil {
		return false, err
	}
	if errorType != "" {
		if err := disputes.SetErrorType(ctx, id, errorType); err != nil {
			return false, err
		}
		d.ErrorType = errorType
	}

	req := &diagnosis.ReviewRequest{
		DisputeID:  d.ID,
		Expected:   d.Expected,
		Recognized: d.Recognized,
		ErrorType:  diagnosis.ErrorType(d.ErrorType),
		Note:       d.Note,
	}
	queued := s.diag.RequestReview(context.WithoutCancel(ctx), req, func(rev *diagnosis.Review, err error) {
		s.storeReview(id, errorType != "", rev, err)
	})
	s.logger.Info("dispute sent to ai", "dispute_id", id, "queued", queued)
	return queued, nil
}

func (s *Service) storeReview(id int64, keepErrorType bool, rev *diagnosis.Review, err error) {
	if err != nil {
		s.logger.Warn("ai review failed", "dispute_id", id, "error", err)
		return
	}
	ai := store.AIReview{
		Verdict:    string(rev.Verdict),
		Reasoning:  rev.Reasoning,
		Confidence: rev.Confidence,
	}
	// An error type chosen by the reviewer on send wins over the LLM's.
	if !keepErrorType && rev.ErrorType != "" {
		ai.ErrorType = string(rev.ErrorType)
	}
	if err := s.store.Disputes().SetAIReview(context.Background(), id, ai, s.now()); err != nil {
		s.logger.Warn("store ai review", "dispute_id", id, "error", err)
	}
}
