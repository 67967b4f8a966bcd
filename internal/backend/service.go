// Package backend implements the word, session and dispute collaborators
// over the local SQLite store. The HTTP API serves the same operations.
package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/diagnosis"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

// ErrInvalidInput marks a request the caller must fix.
var ErrInvalidInput = errors.New("backend: invalid input")

// List limits.
const (
	SessionListLimit = 25
	DisputeListLimit = 200
)

// Backend is everything the TUI and CLI need. Service and api.Client both
// implement it.
type Backend interface {
	session.WordSource
	session.AnswerSubmitter
	session.SessionFinisher
	session.ResultSink

	StartSession(ctx context.Context, req StartRequest) (session.Context, error)
	Session(ctx context.Context, id string) (*SessionDetail, error)
	ListSessions(ctx context.Context, studentID string) ([]SessionInfo, error)
	Answers(ctx context.Context, f AnswerFilter) ([]AnswerItem, error)
	Overview(ctx context.Context) ([]StudentOverview, error)
	Difficulty(ctx context.Context, studentID string) (*store.Breakdown, error)
	Drilldown(ctx context.Context, studentID, group, key string) ([]AnswerItem, error)

	CreateDispute(ctx context.Context, req DisputeRequest) (*store.Dispute, error)
	Disputes(ctx context.Context, f store.DisputeFilter) ([]store.Dispute, error)
	DisputeAudio(ctx context.Context, id int64) (*blob.Blob, error)
	ReviewDispute(ctx context.Context, id int64, status string) error
	DeleteDisputeAudio(ctx context.Context, id int64) error
	SendToAI(ctx context.Context, id int64, errorType string) (bool, error)
}

var _ Backend = (*Service)(nil)

// Service is the local Backend.
type Service struct {
	store  *store.Store
	diag   *diagnosis.Service
	blobs  blob.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDiagnosis sets the diagnosis service. Without one, answers are
// classified by the rule chain and disputes cannot go to AI review.
func WithDiagnosis(d *diagnosis.Service) Option {
	return func(s *Service) { s.diag = d }
}

// WithBlobs overrides the blob buffer. The default is the store's own.
func WithBlobs(b blob.Store) Option {
	return func(s *Service) { s.blobs = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNow sets the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		blobs:  st.Blobs(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.diag == nil {
		s.diag = diagnosis.NewService(nil)
	}
	return s
}

// Blobs returns the blob buffer session audio is flushed to.
func (s *Service) Blobs() blob.Store { return s.blobs }
