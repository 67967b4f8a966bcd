package diagnosis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/abhisek/laesemaskine/internal/llm"
)

func TestService_RuleBased(t *testing.T) {
	svc := NewService(nil)
	defer svc.Close()

	d := svc.Diagnose("hunden", "hund")
	if d.ErrorType != ErrorMissingEnding {
		t.Errorf("got %q, want %q", d.ErrorType, ErrorMissingEnding)
	}
	if svc.CanReview() {
		t.Error("CanReview() = true without provider")
	}
	if svc.RequestReview(context.Background(), &ReviewRequest{}, nil) {
		t.Error("RequestReview accepted a job without provider")
	}
}

func TestService_ReviewCallback(t *testing.T) {
	resp := json.RawMessage(`{"verdict":"reader","error_type":"missing_ending","confidence":0.9,"reasoning":"Endelsen mangler."}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})
	svc := NewService(mock)

	var (
		mu  sync.Mutex
		got *Review
	)
	ok := svc.RequestReview(context.Background(), &ReviewRequest{DisputeID: 3, Expected: "hunden", Recognized: "hund"},
		func(r *Review, err error) {
			if err != nil {
				t.Errorf("review error: %v", err)
				return
			}
			mu.Lock()
			got = r
			mu.Unlock()
		})
	if !ok {
		t.Fatal("RequestReview rejected the job")
	}
	svc.Close()

	mu.Lock()
	defer mu.Unlock()
	if got == nil {
		t.Fatal("callback never fired")
	}
	if got.DisputeID != 3 || got.Verdict != VerdictReader {
		t.Errorf("got %+v", got)
	}
}

func TestService_CanceledJobSkipsProvider(t *testing.T) {
	mock := llm.NewMockProvider()
	svc := NewService(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var gotErr error
	svc.RequestReview(ctx, &ReviewRequest{}, func(_ *Review, err error) { gotErr = err })
	svc.Close()

	if gotErr == nil {
		t.Error("expected context error in callback")
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider called %d times, want 0", mock.CallCount())
	}
}
