package diagnosis

import (
	"context"

	"github.com/abhisek/laesemaskine/internal/llm"
)

// Service classifies answers with the rule chain and, when an LLM is
// configured, runs dispute reviews on a background loop.
type Service struct {
	classifiers []Classifier
	reviewer    *Reviewer
	pending     chan reviewJob
	done        chan struct{}
}

type reviewJob struct {
	ctx context.Context
	req *ReviewRequest
	cb  func(*Review, error)
}

// NewService creates a diagnosis service. If provider is nil, only rule-based
// classification is available.
func NewService(provider llm.Provider) *Service {
	s := &Service{
		classifiers: DefaultClassifiers(),
		pending:     make(chan reviewJob, 32),
		done:        make(chan struct{}),
	}
	if provider != nil {
		s.reviewer = NewReviewer(provider, DefaultReviewerConfig())
		go s.processLoop()
	} else {
		close(s.done)
	}
	return s
}

// Diagnose classifies an answer synchronously.
func (s *Service) Diagnose(expected, recognized string) Diagnosis {
	return DiagnoseWith(s.classifiers, expected, recognized)
}

// CanReview reports whether LLM review is available.
func (s *Service) CanReview() bool {
	return s.reviewer != nil
}

// RequestReview queues a dispute review. cb runs on the service goroutine
// when the review finishes. It returns false when no reviewer is configured
// or the queue is full.
func (s *Service) RequestReview(ctx context.Context, req *ReviewRequest, cb func(*Review, error)) bool {
	if s.reviewer == nil {
		return false
	}
	select {
	case s.pending <- reviewJob{ctx: ctx, req: req, cb: cb}:
		return true
	default:
		return false
	}
}

func (s *Service) processLoop() {
	defer close(s.done)
	for job := range s.pending {
		if err := job.ctx.Err(); err != nil {
			if job.cb != nil {
				job.cb(nil, err)
			}
			continue
		}
		review, err := s.reviewer.Review(job.ctx, job.req)
		if job.cb != nil {
			job.cb(review, err)
		}
	}
}

// Close stops accepting reviews and waits for queued ones to finish.
func (s *Service) Close() {
	close(s.pending)
	<-s.done
}
