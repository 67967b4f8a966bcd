package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhisek/laesemaskine/internal/audio"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/diagnosis"
	"github.com/abhisek/laesemaskine/internal/difficulty"
	"github.com/abhisek/laesemaskine/internal/match"
	"github.com/abhisek/laesemaskine/internal/observe"
	"github.com/abhisek/laesemaskine/internal/recognition"
	"github.com/abhisek/laesemaskine/internal/timing"
)

const (
	// ListenGrace extends the listen timeout past the word budget.
	ListenGrace = 3000 * time.Millisecond

	// FlashDuration is how long the verdict is shown before the next word.
	FlashDuration = 250 * time.Millisecond

	// FrameInterval is the countdown refresh rate.
	FrameInterval = 50 * time.Millisecond
)

// Deps are the runner's collaborators. Words and Recognizer are required;
// the rest may be nil.
type Deps struct {
	Words      WordSource
	Answers    AnswerSubmitter
	Finisher   SessionFinisher
	Recognizer Listener
	Recorder   audio.Recorder
	Blobs      blob.Store
	Results    ResultSink
	Clock      Clock
	Observer   Observer
	Logger     *slog.Logger
	Metrics    *observe.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithWordsPerSession overrides the batch size.
func WithWordsPerSession(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.total = n
		}
	}
}

// WithFrameInterval overrides the countdown refresh rate.
func WithFrameInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.frame = d
		}
	}
}

// Runner drives one session. A Runner is single use.
type Runner struct {
	sc      Context
	deps    Deps
	clock   Clock
	logger  *slog.Logger
	metrics *observe.Metrics
	total   int
	frame   time.Duration

	est   *difficulty.Estimator
	stats timing.Stats
	skip  chan struct{}

	emitMu sync.Mutex

	mu      sync.Mutex
	words   []Word
	records []AnswerRecord
}

// NewRunner creates a runner for the given session context.
func NewRunner(sc Context, deps Deps, opts ...Option) *Runner {
	sc = sc.withDefaults()
	r := &Runner{
		sc:      sc,
		deps:    deps,
		clock:   deps.Clock,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		total:   WordsPerSession,
		frame:   FrameInterval,
		est:     difficulty.New(sc.StartLevel),
		stats:   timing.NewStats(),
		skip:    make(chan struct{}, 1),
	}
	if r.clock == nil {
		r.clock = RealClock()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("session", sc.SessionID)
	for _, o := range opts {
		o(r)
	}
	return r
}

// Skip ends the current word with an empty answer.
func (r *Runner) Skip() {
	select {
	case r.skip <- struct{}{}:
	default:
	}
}

// Level returns the current difficulty level.
func (r *Runner) Level() int { return r.est.Level() }

// Records returns the answers recorded so far.
func (r *Runner) Records() []AnswerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AnswerRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Words returns the current batch, including any refetched suffix.
func (r *Runner) Words() []Word {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Word, len(r.words))
	copy(out, r.words)
	return out
}

// Run plays the whole session. It returns ErrWordFetch if the batch cannot
// be loaded and ctx.Err() if the session is abandoned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	defer r.metrics.SessionStarted(ctx)()

	start := r.est.Level()
	band := 1
	if start <= 2 {
		band = 0
	}
	if r.deps.Words == nil {
		return Result{}, fmt.Errorf("%w: no word source", ErrWordFetch)
	}
	words, err := r.deps.Words.FetchWords(ctx, start, r.total, band)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrWordFetch, err)
	}
	if len(words) < r.total {
		return Result{}, fmt.Errorf("%w: got %d of %d words", ErrWordFetch, len(words), r.total)
	}
	r.mu.Lock()
	r.words = append([]Word(nil), words[:r.total]...)
	r.mu.Unlock()

	recording := r.startRecorder(ctx)
	sessionStart := r.clock.Now()
	r.logger.Info("session started", "level", start, "words", r.total, "recording", recording)

	correctTotal := 0
	for i := 0; i < r.total; i++ {
		if err := ctx.Err(); err != nil {
			r.abortRecorder(recording)
			return Result{}, err
		}
		rec, err := r.playWord(ctx, i, sessionStart)
		if err != nil {
			r.abortRecorder(recording)
			return Result{}, err
		}
		if rec.Correct {
			correctTotal++
		}
	}
	return r.finish(ctx, correctTotal, recording), nil
}

type heardResult struct {
	hyp match.Hypothesis
	err error
	at  time.Time
}

func (r *Runner) playWord(ctx context.Context, i int, sessionStart time.Time) (AnswerRecord, error) {
	r.mu.Lock()
	w := r.words[i]
	r.mu.Unlock()

	levelBefore := r.est.Level()
	level := w.Level
	if level < difficulty.MinLevel || level > difficulty.MaxLevel {
		level = levelBefore
	}
	budget := timing.Plan(level, r.sc.MasteryFor(level), r.stats.For(level))
	base := Event{
		Index:    i,
		Total:    r.total,
		Word:     w,
		Level:    levelBefore,
		Budget:   budget,
		Progress: float64(i) / float64(r.total),
	}
	r.drainSkip()
	r.metrics.RecordWordServed(ctx, level)
	r.emitPhase(base, PhasePreRoll)

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenStart := r.clock.Now()
	offset := max(0, listenStart.Sub(sessionStart).Milliseconds())
	clipStart := offset
	clipEnd := offset + (timing.PreRoll + budget.Visible + timing.PostRoll).Milliseconds()

	heard := make(chan heardResult, 1)
	go func() {
		hyp, err := r.listen(wctx, budget.Total+ListenGrace)
		heard <- heardResult{hyp: hyp, err: err, at: r.clock.Now()}
	}()
	bar := r.startBar(base, budget.Total)

	abandon := func() (AnswerRecord, error) {
		cancel()
		bar.stop()
		<-heard
		return AnswerRecord{}, ctx.Err()
	}

	var (
		res     heardResult
		got     bool
		skipped bool
	)

	select {
	case <-r.clock.After(timing.PreRoll):
	case <-r.skip:
		skipped = true
	case <-ctx.Done():
		return abandon()
	}

	if !skipped {
		r.emitPhase(base, PhaseExposed)
		visibleEnd := r.clock.After(budget.Visible)
		var postEnd <-chan time.Time
	race:
		for {
			select {
			case res = <-heard:
				got = true
				break race
			case <-visibleEnd:
				visibleEnd = nil
				r.emitPhase(base, PhasePost)
				postEnd = r.clock.After(timing.PostRoll)
			case <-postEnd:
				break race
			case <-r.skip:
				skipped = true
				break race
			case <-ctx.Done():
				return abandon()
			}
		}
	}

	switch {
	case skipped:
		cancel()
		bar.stop()
		<-heard
		res = heardResult{at: r.clock.Now()}
	case got:
		bar.stop()
	default:
		// Window over; let the bar run out, then wait for the listen to
		// resolve on its own timeout.
		select {
		case <-bar.done:
		case <-ctx.Done():
			return abandon()
		}
		select {
		case res = <-heard:
		case <-r.skip:
			skipped = true
			cancel()
			<-heard
			res = heardResult{at: r.clock.Now()}
		case <-ctx.Done():
			return abandon()
		}
	}

	text := ""
	if res.err != nil {
		if !skipped {
			kind := recognition.Kind(res.err)
			r.metrics.RecordRecognitionError(ctx, kind)
			r.logger.Debug("no transcript", "word", w.Text, "kind", kind, "error", res.err)
		}
	} else {
		text = strings.TrimSpace(res.hyp.Text)
	}
	r.metrics.RecordListen(ctx, res.at.Sub(listenStart))

	var responseMs int64
	if !skipped {
		responseMs = max(0, (res.at.Sub(listenStart) - timing.PreRoll).Milliseconds())
	}

	rec := AnswerRecord{
		Word:           w,
		Recognized:     text,
		ResponseTimeMs: responseMs,
		StartMs:        clipStart,
		EndMs:          clipEnd,
		VisibleMs:      budget.Visible.Milliseconds(),
		Level:          level,
		Skipped:        skipped,
	}
	if text != "" {
		rec.Candidate = match.BestCandidate(w.Text, res.hyp)
	}

	verdict := r.submit(ctx, rec)
	rec.Correct = verdict.Correct
	rec.SessionWordID = verdict.SessionWordID

	r.est.Record(rec.Correct)
	r.stats.Record(level, rec.Correct, time.Duration(responseMs)*time.Millisecond, budget.Visible)
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	fb := base
	fb.Heard = text
	fb.Correct = rec.Correct
	fb.Verdict = &verdict
	r.emitPhase(fb, PhaseFeedback)
	select {
	case <-r.clock.After(FlashDuration):
	case <-ctx.Done():
		return AnswerRecord{}, ctx.Err()
	}

	newLevel := r.est.Level()
	adv := base
	adv.Level = newLevel
	adv.Progress = float64(i+1) / float64(r.total)
	r.emitPhase(adv, PhaseAdvance)
	if newLevel != levelBefore {
		r.metrics.RecordLevelChange(ctx, levelBefore, newLevel)
		r.logger.Debug("level changed", "from", levelBefore, "to", newLevel, "index", i)
		if remaining := r.total - (i + 1); remaining > 0 {
			r.refetch(ctx, i+1, remaining, newLevel)
		}
	}
	return rec, nil
}

// submit scores rec with the answer API, falling back to a local strict
// comparison when the API is missing or fails.
func (r *Runner) submit(ctx context.Context, rec AnswerRecord) Verdict {
	if r.deps.Answers != nil {
		v, err := r.deps.Answers.SubmitAnswer(ctx, r.sc.SessionID, rec)
		if err == nil {
			r.metrics.RecordAnswer(ctx, v.Correct, "api")
			return v
		}
		r.logger.Warn("answer submit failed, scoring locally", "word", rec.Word.Text, "error", err)
	}
	v := Verdict{
		Correct:     match.IsCorrect(rec.Word.Text, rec.Recognized),
		Diagnostics: diagnosis.Diagnose(rec.Word.Text, rec.Recognized),
	}
	r.metrics.RecordAnswer(ctx, v.Correct, "fallback")
	return v
}

// refetch replaces the words from index from on with a fresh batch at
// level. A failed or short fetch keeps the current words.
func (r *Runner) refetch(ctx context.Context, from, count, level int) {
	fresh, err := r.deps.Words.FetchWords(ctx, level, count, 1)
	if err != nil {
		r.metrics.RecordRefetch(ctx, "error")
		r.logger.Warn("word refetch failed, keeping batch", "level", level, "error", err)
		return
	}
	if len(fresh) < count {
		r.metrics.RecordRefetch(ctx, "short")
		r.logger.Warn("word refetch returned too few words, keeping batch", "level", level, "got", len(fresh), "want", count)
		return
	}
	r.mu.Lock()
	copy(r.words[from:], fresh[:count])
	r.mu.Unlock()
	r.metrics.RecordRefetch(ctx, "ok")
}

func (r *Runner) finish(ctx context.Context, correctTotal int, recording bool) Result {
	level := r.est.Level()
	var (
		res Result
		err error
	)
	if r.deps.Finisher != nil {
		res, err = r.deps.Finisher.FinishSession(ctx, r.sc.SessionID, level)
	} else {
		err = fmt.Errorf("no session finisher")
	}
	if err != nil {
		r.logger.Warn("finish failed, using local result", "error", err)
		res = Result{
			SessionID:      r.sc.SessionID,
			EstimatedLevel: level,
			CorrectTotal:   correctTotal,
			TotalWords:     r.total,
		}
	}
	if recording {
		res.AudioKey = r.flushAudio(ctx)
	}
	if r.deps.Results != nil {
		if err := r.deps.Results.SaveResult(ctx, res); err != nil {
			r.logger.Warn("saving result failed", "error", err)
		}
	}
	r.logger.Info("session finished", "level", res.EstimatedLevel, "correct", res.CorrectTotal, "total", res.TotalWords)
	r.emitPhase(Event{Index: r.total, Total: r.total, Level: level, Progress: 1, Result: &res}, PhaseFinished)
	return res
}

// realTimer is implemented by clocks that run faster than wall time.
type realTimer interface {
	Real(d time.Duration) time.Duration
}

func (r *Runner) listen(ctx context.Context, timeout time.Duration) (match.Hypothesis, error) {
	if r.deps.Recognizer == nil {
		return match.Hypothesis{}, recognition.ErrUnsupported
	}
	if sc, ok := r.clock.(realTimer); ok {
		timeout = sc.Real(timeout)
	}
	return r.deps.Recognizer.ListenOnce(ctx, r.sc.Lang, timeout)
}

func (r *Runner) startRecorder(ctx context.Context) bool {
	if r.deps.Recorder == nil {
		return false
	}
	if err := r.deps.Recorder.Start(ctx); err != nil {
		r.logger.Warn("recorder unavailable, continuing without audio", "error", err)
		return false
	}
	return true
}

func (r *Runner) abortRecorder(recording bool) {
	if !recording {
		return
	}
	if _, err := r.deps.Recorder.Stop(); err != nil {
		r.logger.Debug("recorder stop failed", "error", err)
	}
}

// flushAudio stops the recorder and stores the clip. It returns the blob
// key, or "" when nothing was stored.
func (r *Runner) flushAudio(ctx context.Context) string {
	clip, err := r.deps.Recorder.Stop()
	if err != nil {
		r.logger.Warn("recorder stop failed", "error", err)
		return ""
	}
	if len(clip.Data) == 0 || r.deps.Blobs == nil {
		return ""
	}
	key := blob.AudioKey(r.sc.SessionID, r.clock.Now())
	err = r.deps.Blobs.Put(ctx, blob.Blob{Key: key, Data: clip.Data, MIME: clip.MIME, CreatedAt: time.Now()})
	if err != nil {
		r.logger.Warn("storing session audio failed", "error", err)
		return ""
	}
	return key
}

func (r *Runner) drainSkip() {
	select {
	case <-r.skip:
	default:
	}
}

func (r *Runner) emitPhase(ev Event, p Phase) {
	ev.Kind = EventPhase
	ev.Phase = p
	r.emit(ev)
}

func (r *Runner) emit(ev Event) {
	if r.deps.Observer == nil {
		return
	}
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.deps.Observer(ev)
}

// countdown animates the word bar until it runs out or is stopped.
type countdown struct {
	cancelled atomic.Bool
	done      chan struct{}
}

func (r *Runner) startBar(ev Event, total time.Duration) *countdown {
	c := &countdown{done: make(chan struct{})}
	start := r.clock.Now()
	ev.Kind = EventFrame
	go func() {
		defer close(c.done)
		for {
			frac := 1.0
			if !c.cancelled.Load() {
				if el := r.clock.Now().Sub(start); el < total {
					frac = float64(el) / float64(total)
				}
			}
			ev.Bar = frac
			r.emit(ev)
			if frac >= 1 {
				return
			}
			<-r.clock.After(r.frame)
		}
	}()
	return c
}

// stop cancels the bar and waits for its goroutine. The bar snaps to full.
func (c *countdown) stop() {
	c.cancelled.Store(true)
	<-c.done
}
