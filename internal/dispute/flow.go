// Package dispute runs the learner side of a dispute: cutting the word's
// clip from the buffered session recording, submitting it once, and
// discarding the recording.
package dispute

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/store"
)

// Creator stores disputes. backend.Service and api.Client implement it.
type Creator interface {
	CreateDispute(ctx context.Context, req backend.DisputeRequest) (*store.Dispute, error)
}

// Request disputes one answer. AudioKey names the session recording in the
// local blob buffer; StartMs and EndMs are the word's clip markers.
type Request struct {
	SessionWordID int64
	Note          string
	AudioKey      string
	StartMs       int64
	EndMs         int64
}

// Flow submits disputes and manages the buffered recording.
type Flow struct {
	creator Creator
	blobs   blob.Store
	logger  *slog.Logger

	submits  singleflight.Group
	discards singleflight.Group

	mu   sync.Mutex
	sent map[int64]*store.Dispute
}

// New creates a Flow. blobs may be nil when no recording is kept.
func New(creator Creator, blobs blob.Store, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		creator: creator,
		blobs:   blobs,
		logger:  logger,
		sent:    make(map[int64]*store.Dispute),
	}
}

// Submit creates the dispute for req.SessionWordID. Concurrent and repeated
// submissions for the same answer produce a single dispute.
func (f *Flow) Submit(ctx context.Context, req Request) (*store.Dispute, error) {
	key := strconv.FormatInt(req.SessionWordID, 10)
	v, err, shared := f.submits.Do(key, func() (any, error) {
		if d := f.sentFor(req.SessionWordID); d != nil {
			return d, nil
		}
		dreq := backend.DisputeRequest{SessionWordID: req.SessionWordID, Note: req.Note}
		if err := f.attachClip(ctx, req, &dreq); err != nil {
			f.logger.Warn("dispute without audio", "session_word_id", req.SessionWordID, "error", err)
		}
		d, err := f.creator.CreateDispute(ctx, dreq)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.sent[req.SessionWordID] = d
		f.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit dispute: %w", err)
	}
	if shared {
		f.logger.Debug("dispute submit collapsed", "session_word_id", req.SessionWordID)
	}
	return v.(*store.Dispute), nil
}

// Sent reports whether a dispute was already created for the answer.
func (f *Flow) Sent(sessionWordID int64) bool {
	return f.sentFor(sessionWordID) != nil
}

func (f *Flow) sentFor(id int64) *store.Dispute {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[id]
}

func (f *Flow) attachClip(ctx context.Context, req Request, dreq *backend.DisputeRequest) error {
	if f.blobs == nil || req.AudioKey == "" {
		return nil
	}
	b, err := f.blobs.Get(ctx, req.AudioKey)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	dreq.Audio, dreq.AudioMIME = Clip(b.Data, b.MIME, req.StartMs, req.EndMs)
	return nil
}

// HasRecording reports whether the recording is still buffered.
func (f *Flow) HasRecording(ctx context.Context, key string) (bool, error) {
	if f.blobs == nil || key == "" {
		return false, nil
	}
	b, err := f.blobs.Get(ctx, key)
	return b != nil, err
}

// Discard deletes the buffered recording. It is idempotent and concurrent
// calls for one key share a single delete.
func (f *Flow) Discard(ctx context.Context, key string) error {
	if f.blobs == nil || key == "" {
		return nil
	}
	_, err, _ := f.discards.Do(key, func() (any, error) {
		return nil, f.blobs.Delete(ctx, key)
	})
	if err != nil {
		return fmt.Errorf("discard recording: %w", err)
	}
	return nil
}
