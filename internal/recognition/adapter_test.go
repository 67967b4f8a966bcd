package recognition

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestListenOnceNoEngine(t *testing.T) {
	a := NewAdapter(nil, nil)
	if a.Available() {
		t.Error("Available() = true, want false")
	}
	_, err := a.ListenOnce(context.Background(), "da-DK", time.Second)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestListenOnceResult(t *testing.T) {
	eng := NewScriptedEngine(Step{Alternatives: []string{" hus ", "", "mus", "bus", "ris", "is", "sus"}})
	a := NewAdapter(eng, nil)

	hyp, err := a.ListenOnce(context.Background(), "da-DK", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hyp.Text != "hus" {
		t.Errorf("Text = %q, want %q", hyp.Text, "hus")
	}
	want := []string{"hus", "mus", "bus", "ris", "is"}
	if len(hyp.Alternatives) != len(want) {
		t.Fatalf("got %d alternatives, want %d", len(hyp.Alternatives), len(want))
	}
	for i := range want {
		if hyp.Alternatives[i] != want[i] {
			t.Errorf("Alternatives[%d] = %q, want %q", i, hyp.Alternatives[i], want[i])
		}
	}
}

func TestListenOnceRawFallback(t *testing.T) {
	eng := NewScriptedEngine(Step{Raw: " kat "})
	a := NewAdapter(eng, nil)

	hyp, err := a.ListenOnce(context.Background(), "da-DK", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hyp.Text != "kat" {
		t.Errorf("Text = %q, want %q", hyp.Text, "kat")
	}
	if len(hyp.Alternatives) != 0 {
		t.Errorf("Alternatives = %v, want none", hyp.Alternatives)
	}
}

func TestListenOnceEngineError(t *testing.T) {
	eng := NewScriptedEngine(Step{Fail: "not-allowed"})
	a := NewAdapter(eng, nil)

	_, err := a.ListenOnce(context.Background(), "da-DK", time.Second)
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("err = %v, want *EngineError", err)
	}
	if engErr.Reason != "not-allowed" {
		t.Errorf("Reason = %q, want %q", engErr.Reason, "not-allowed")
	}
	if got := Kind(err); got != "engine" {
		t.Errorf("Kind = %q, want %q", got, "engine")
	}
}

func TestListenOnceTimeoutStopsEngine(t *testing.T) {
	eng := NewScriptedEngine(Step{Silent: true})
	a := NewAdapter(eng, nil)

	_, err := a.ListenOnce(context.Background(), "da-DK", 30*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if eng.Stops() == 0 {
		t.Error("engine was not stopped after timeout")
	}
}

func TestListenOnceSpeechEndStopsThenResult(t *testing.T) {
	eng := NewScriptedEngine(Step{SpeechEnd: true, Alternatives: []string{"sol"}})
	a := NewAdapter(eng, nil)

	hyp, err := a.ListenOnce(context.Background(), "da-DK", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hyp.Text != "sol" {
		t.Errorf("Text = %q, want %q", hyp.Text, "sol")
	}
	if eng.Stops() != 1 {
		t.Errorf("Stops = %d, want 1", eng.Stops())
	}
}

// closedEngine closes its channel without reporting anything.
type closedEngine struct{ stops int }

func (e *closedEngine) Name() string { return "closed" }
func (e *closedEngine) Start(context.Context, Request) (<-chan Event, error) {
	ch := make(chan Event)
	close(ch)
	return ch, nil
}
func (e *closedEngine) Stop() { e.stops++ }

func TestListenOnceClosedChannelWaitsForTimeout(t *testing.T) {
	eng := &closedEngine{}
	a := NewAdapter(eng, nil)

	start := time.Now()
	_, err := a.ListenOnce(context.Background(), "da-DK", 40*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("returned after %v, want at least the timeout", elapsed)
	}
	if eng.stops != 1 {
		t.Errorf("stops = %d, want 1", eng.stops)
	}
}

func TestListenOnceBusy(t *testing.T) {
	eng := NewScriptedEngine(Step{Silent: true})
	a := NewAdapter(eng, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.ListenOnce(ctx, "da-DK", 5*time.Second)
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for eng.Starts() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	_, err := a.ListenOnce(context.Background(), "da-DK", time.Second)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second listen err = %v, want ErrBusy", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("first listen err = %v, want context.Canceled", err)
	}
	if got := Kind(context.Canceled); got != "canceled" {
		t.Errorf("Kind = %q, want %q", got, "canceled")
	}
}

func TestTypedEngineSubmit(t *testing.T) {
	eng := NewTypedEngine()
	if eng.Submit("hus") {
		t.Error("Submit with no listen = true, want false")
	}
	a := NewAdapter(eng, nil)

	go func() {
		for !eng.Listening() {
			time.Sleep(time.Millisecond)
		}
		eng.Submit("  båd ")
	}()

	hyp, err := a.ListenOnce(context.Background(), "da-DK", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hyp.Text != "båd" {
		t.Errorf("Text = %q, want %q", hyp.Text, "båd")
	}
	if eng.Listening() {
		t.Error("Listening() = true after submit")
	}
}
