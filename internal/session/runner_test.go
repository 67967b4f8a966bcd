package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/laesemaskine/internal/audio"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/match"
	"github.com/abhisek/laesemaskine/internal/recognition"
	"github.com/abhisek/laesemaskine/internal/timing"
)

// testFactor speeds the runner up so a 20-word session takes well under a
// second.
const testFactor = 1000

type fetchCall struct{ level, count, band int }

type fakeWords struct {
	mu          sync.Mutex
	calls       []fetchCall
	err         error
	short       bool
	failRefetch bool
}

func (f *fakeWords) FetchWords(_ context.Context, level, count, band int) ([]Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{level, count, band})
	n := len(f.calls)
	if f.err != nil {
		return nil, f.err
	}
	if f.failRefetch && n > 1 {
		return nil, errors.New("offline")
	}
	if f.short {
		count--
	}
	words := make([]Word, count)
	for i := range words {
		id := int64(n*100 + i)
		words[i] = Word{ID: id, Text: fmt.Sprintf("ord%d", id), Level: level}
	}
	return words, nil
}

func (f *fakeWords) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

type fakeBackend struct {
	mu          sync.Mutex
	answers     []AnswerRecord
	finishCalls int
	submitErr   error
	finishErr   error
}

func (b *fakeBackend) SubmitAnswer(_ context.Context, _ string, rec AnswerRecord) (Verdict, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return Verdict{}, b.submitErr
	}
	rec.Correct = match.IsCorrect(rec.Word.Text, rec.Recognized)
	b.answers = append(b.answers, rec)
	return Verdict{SessionWordID: int64(len(b.answers)), Correct: rec.Correct}, nil
}

func (b *fakeBackend) FinishSession(_ context.Context, sessionID string, level int) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finishCalls++
	if b.finishErr != nil {
		return Result{}, b.finishErr
	}
	correct := 0
	for _, a := range b.answers {
		if a.Correct {
			correct++
		}
	}
	return Result{SessionID: sessionID, EstimatedLevel: level, CorrectTotal: correct, TotalWords: len(b.answers)}, nil
}

// fakeListener answers after delay with whatever say returns. A nil say
// never answers and runs into the timeout.
type fakeListener struct {
	clock Clock
	delay time.Duration
	say   func() (string, error)
}

func (l *fakeListener) ListenOnce(ctx context.Context, _ string, timeout time.Duration) (match.Hypothesis, error) {
	if l.say == nil {
		select {
		case <-time.After(timeout):
			return match.Hypothesis{}, recognition.ErrTimeout
		case <-ctx.Done():
			return match.Hypothesis{}, ctx.Err()
		}
	}
	select {
	case <-l.clock.After(l.delay):
	case <-ctx.Done():
		return match.Hypothesis{}, ctx.Err()
	}
	text, err := l.say()
	if err != nil {
		return match.Hypothesis{}, err
	}
	return match.Hypothesis{Text: text, Alternatives: []string{text}}, nil
}

type harness struct {
	clock    *ScaledClock
	words    *fakeWords
	backend  *fakeBackend
	listener *fakeListener
	current  atomic.Value

	mu      sync.Mutex
	events  []Event
	onEvent func(Event)
}

func newHarness() *harness {
	h := &harness{
		clock:   NewScaledClock(testFactor),
		words:   &fakeWords{},
		backend: &fakeBackend{},
	}
	h.current.Store("")
	h.listener = &fakeListener{clock: h.clock, delay: 2500 * time.Millisecond, say: h.sayCurrent}
	return h
}

// sayCurrent reads the word on screen correctly.
func (h *harness) sayCurrent() (string, error) {
	return h.current.Load().(string), nil
}

func (h *harness) observe(ev Event) {
	if ev.Kind != EventPhase {
		return
	}
	if ev.Phase == PhasePreRoll {
		h.current.Store(ev.Word.Text)
	}
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
	if h.onEvent != nil {
		h.onEvent(ev)
	}
}

func (h *harness) phasesFor(index int) []Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Phase
	for _, ev := range h.events {
		if ev.Index == index && ev.Phase != PhaseFinished {
			out = append(out, ev.Phase)
		}
	}
	return out
}

func (h *harness) deps() Deps {
	return Deps{
		Words:      h.words,
		Answers:    h.backend,
		Finisher:   h.backend,
		Recognizer: h.listener,
		Clock:      h.clock,
		Observer:   h.observe,
	}
}

func testContext() Context {
	return Context{SessionID: "s1", StudentID: "elev1", StartLevel: 1, Lang: "da-DK"}
}

func TestRunAllCorrect(t *testing.T) {
	h := newHarness()
	var saved []Result
	deps := h.deps()
	deps.Results = ResultSinkFunc(func(_ context.Context, r Result) error {
		saved = append(saved, r)
		return nil
	})
	r := NewRunner(testContext(), deps)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.CorrectTotal != 20 {
		t.Errorf("CorrectTotal = %d, want 20", res.CorrectTotal)
	}
	if res.TotalWords != 20 {
		t.Errorf("TotalWords = %d, want 20", res.TotalWords)
	}
	if res.EstimatedLevel <= 1 {
		t.Errorf("EstimatedLevel = %d, want it raised above 1", res.EstimatedLevel)
	}
	if r.Level() != 17 {
		t.Errorf("Level = %d, want 17", r.Level())
	}
	if h.backend.finishCalls != 1 {
		t.Errorf("finish calls = %d, want 1", h.backend.finishCalls)
	}
	if len(h.backend.answers) != 20 {
		t.Errorf("answers = %d, want 20", len(h.backend.answers))
	}
	if len(saved) != 1 || saved[0].CorrectTotal != 20 {
		t.Errorf("saved results = %+v, want one with 20 correct", saved)
	}

	calls := h.words.Calls()
	if calls[0] != (fetchCall{level: 1, count: 20, band: 0}) {
		t.Errorf("first fetch = %+v, want level 1 count 20 band 0", calls[0])
	}
	for _, c := range calls[1:] {
		if c.band != 1 {
			t.Errorf("refetch band = %d, want 1", c.band)
		}
		if c.count >= 20 {
			t.Errorf("refetch count = %d, want the remaining words only", c.count)
		}
	}
	if len(r.Words()) != 20 {
		t.Errorf("batch length = %d, want 20", len(r.Words()))
	}
	for i, rec := range r.Records() {
		if rec.SessionWordID != int64(i+1) {
			t.Errorf("record %d SessionWordID = %d, want %d", i, rec.SessionWordID, i+1)
		}
	}
}

func TestRunWordFetchError(t *testing.T) {
	h := newHarness()
	h.words.err = errors.New("boom")

	_, err := NewRunner(testContext(), h.deps()).Run(context.Background())
	if !errors.Is(err, ErrWordFetch) {
		t.Fatalf("err = %v, want ErrWordFetch", err)
	}
	if len(h.backend.answers) != 0 || h.backend.finishCalls != 0 {
		t.Error("session started despite fetch failure")
	}
}

func TestRunShortBatch(t *testing.T) {
	h := newHarness()
	h.words.short = true

	_, err := NewRunner(testContext(), h.deps()).Run(context.Background())
	if !errors.Is(err, ErrWordFetch) {
		t.Fatalf("err = %v, want ErrWordFetch", err)
	}
}

func TestRunStartBand(t *testing.T) {
	h := newHarness()
	sc := testContext()
	sc.StartLevel = 5
	if _, err := NewRunner(sc, h.deps(), WithWordsPerSession(1)).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.words.Calls()[0]; got != (fetchCall{level: 5, count: 1, band: 1}) {
		t.Errorf("fetch = %+v, want level 5 count 1 band 1", got)
	}
}

func TestRunFallbacks(t *testing.T) {
	h := newHarness()
	h.backend.submitErr = errors.New("offline")
	h.backend.finishErr = errors.New("offline")
	r := NewRunner(testContext(), h.deps(), WithWordsPerSession(6))

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Result{SessionID: "s1", EstimatedLevel: 3, CorrectTotal: 6, TotalWords: 6}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	for _, rec := range r.Records() {
		if !rec.Correct {
			t.Errorf("%s scored wrong by the local fallback", rec.Word.Text)
		}
	}
}

func TestRunRecognitionErrors(t *testing.T) {
	h := newHarness()
	h.listener.say = func() (string, error) { return "", &recognition.EngineError{Reason: "network"} }
	r := NewRunner(testContext(), h.deps(), WithWordsPerSession(5))

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.CorrectTotal != 0 {
		t.Errorf("CorrectTotal = %d, want 0", res.CorrectTotal)
	}
	for _, rec := range r.Records() {
		if rec.Recognized != "" || rec.Correct {
			t.Errorf("record %+v, want empty wrong answer", rec)
		}
	}
	if r.Level() != 1 {
		t.Errorf("Level = %d, want 1", r.Level())
	}
}

func TestRunLateAnswerWaitsForWindow(t *testing.T) {
	h := newHarness()
	h.listener.say = nil
	r := NewRunner(testContext(), h.deps(), WithWordsPerSession(2))

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []Phase{PhasePreRoll, PhaseExposed, PhasePost, PhaseFeedback, PhaseAdvance}
	got := h.phasesFor(0)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("phases = %v, want %v", got, want)
	}
	for _, rec := range r.Records() {
		if rec.Recognized != "" || rec.Correct {
			t.Errorf("record %+v, want empty wrong answer", rec)
		}
	}
}

func TestRunEarlyAnswerSkipsPost(t *testing.T) {
	h := newHarness()
	r := NewRunner(testContext(), h.deps(), WithWordsPerSession(1))

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []Phase{PhasePreRoll, PhaseExposed, PhaseFeedback, PhaseAdvance}
	if got := h.phasesFor(0); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("phases = %v, want %v", got, want)
	}
}

func TestRunSkip(t *testing.T) {
	h := newHarness()
	h.listener.say = nil
	var r *Runner
	h.onEvent = func(ev Event) {
		if ev.Phase == PhaseExposed {
			r.Skip()
		}
	}
	r = NewRunner(testContext(), h.deps(), WithWordsPerSession(3))

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	recs := r.Records()
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	for _, rec := range recs {
		if !rec.Skipped || rec.ResponseTimeMs != 0 || rec.Recognized != "" {
			t.Errorf("record %+v, want a skipped empty answer", rec)
		}
	}
}

func TestRunCancel(t *testing.T) {
	h := newHarness()
	rec := audio.NewMemoryRecorder("")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.onEvent = func(ev Event) {
		if ev.Phase == PhasePreRoll && ev.Index == 2 {
			cancel()
		}
	}
	deps := h.deps()
	deps.Recorder = rec

	_, err := NewRunner(testContext(), deps).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rec.Recording() {
		t.Error("recorder still running after cancel")
	}
	if h.backend.finishCalls != 0 {
		t.Errorf("finish calls = %d, want 0", h.backend.finishCalls)
	}
}

func TestRunStoresAudio(t *testing.T) {
	h := newHarness()
	rec := audio.NewMemoryRecorder("audio/webm")
	store := blob.NewMemoryStore()
	h.onEvent = func(ev Event) {
		if ev.Phase == PhasePreRoll {
			rec.Write([]byte("pcm"))
		}
	}
	deps := h.deps()
	deps.Recorder = rec
	deps.Blobs = store

	res, err := NewRunner(testContext(), deps, WithWordsPerSession(2)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(res.AudioKey, "lm_audio_s1_") {
		t.Fatalf("AudioKey = %q, want lm_audio_s1_ prefix", res.AudioKey)
	}
	b, err := store.Get(context.Background(), res.AudioKey)
	if err != nil || b == nil {
		t.Fatalf("Get = %v, %v", b, err)
	}
	if string(b.Data) != "pcmpcm" {
		t.Errorf("audio = %q, want %q", b.Data, "pcmpcm")
	}
	if rec.Recording() {
		t.Error("recorder still running after finish")
	}
}

func TestRunRecordsFileSource(t *testing.T) {
	h := newHarness()
	pcm := make([]byte, 16000)
	src, err := audio.NewFileSource(audio.EncodeWAV(pcm, audio.Format{Channels: 1, SampleRate: 8000, Bits: 16}), h.clock.Now)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	store := blob.NewMemoryStore()
	deps := h.deps()
	deps.Recorder = src
	deps.Blobs = store
	r := NewRunner(testContext(), deps, WithWordsPerSession(3))

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.AudioKey == "" {
		t.Fatal("AudioKey is empty")
	}
	b, err := store.Get(context.Background(), res.AudioKey)
	if err != nil || b == nil {
		t.Fatalf("Get = %v, %v", b, err)
	}
	if b.MIME != "audio/wav" {
		t.Errorf("MIME = %q, want audio/wav", b.MIME)
	}
	f, got, err := audio.ParseWAV(b.Data)
	if err != nil {
		t.Fatalf("stored audio is not wav: %v", err)
	}
	// Every answer window lies inside the recording.
	recs := r.Records()
	last := recs[len(recs)-1]
	if need := int(last.EndMs) * f.ByteRate() / 1000; len(got) < need {
		t.Errorf("recording has %d bytes, want at least %d to cover %dms", len(got), need, last.EndMs)
	}
}

func TestRunRefetchFailureKeepsBatch(t *testing.T) {
	h := newHarness()
	h.words.failRefetch = true
	r := NewRunner(testContext(), h.deps())

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.CorrectTotal != 20 {
		t.Errorf("CorrectTotal = %d, want 20", res.CorrectTotal)
	}
	if len(h.words.Calls()) < 2 {
		t.Fatal("no refetch attempted")
	}
	for _, w := range r.Words() {
		if w.ID >= 200 {
			t.Errorf("word %d came from a failed refetch", w.ID)
		}
	}
}

func TestRunClipMarkers(t *testing.T) {
	h := newHarness()
	r := NewRunner(testContext(), h.deps(), WithWordsPerSession(3))
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := timing.Plan(1, 0, timing.LevelStats{})
	for i, rec := range r.Records() {
		if rec.StartMs < 0 {
			t.Errorf("record %d: StartMs = %d, want >= 0", i, rec.StartMs)
		}
		span := (timing.PreRoll + timing.PostRoll).Milliseconds() + rec.VisibleMs
		if rec.EndMs-rec.StartMs != span {
			t.Errorf("record %d: clip span = %d, want %d", i, rec.EndMs-rec.StartMs, span)
		}
		if i == 0 && rec.VisibleMs != first.Visible.Milliseconds() {
			t.Errorf("VisibleMs = %d, want %d", rec.VisibleMs, first.Visible.Milliseconds())
		}
	}
}

func TestRunFinishedEvent(t *testing.T) {
	h := newHarness()
	if _, err := NewRunner(testContext(), h.deps(), WithWordsPerSession(1)).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	last := h.events[len(h.events)-1]
	if last.Phase != PhaseFinished || last.Result == nil {
		t.Errorf("last event = %+v, want Finished with result", last)
	}
}
