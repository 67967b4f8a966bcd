// Package session is the training screen. It runs one session with the
// keyboard standing in for the microphone.
package session

import (
	"context"
	"errors"
	"log/slog"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/laesemaskine/internal/audio"
	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/difficulty"
	"github.com/abhisek/laesemaskine/internal/dispute"
	"github.com/abhisek/laesemaskine/internal/observe"
	"github.com/abhisek/laesemaskine/internal/recognition"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/screen"
	sess "github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/ui/components"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
)

// eventBuffer bounds queued runner events. Frames beyond it are dropped.
const eventBuffer = 64

// Config holds the screen's collaborators and session settings.
type Config struct {
	Backend  backend.Backend
	Blobs    blob.Store
	Recorder audio.Recorder
	Flow     *dispute.Flow
	Logger   *slog.Logger
	Metrics  *observe.Metrics

	StudentID       string
	StartLevel      int
	Lang            string
	FeedbackMode    string
	WordsPerSession int

	// Clock overrides the runner clock; tests use a scaled clock.
	Clock sess.Clock
}

// SessionScreen implements screen.Screen for the active session.
type SessionScreen struct {
	cfg    Config
	engine *recognition.TypedEngine
	runner *sess.Runner
	sc     sess.Context
	events chan sess.Event
	cancel context.CancelFunc

	input components.TextInput

	phase    sess.Event
	bar      float64
	feedback *sess.Event

	showingQuitConfirm bool
	quitting           bool
	errMsg             string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.StatusProvider = (*SessionScreen)(nil)

// New creates a new SessionScreen.
func New(cfg Config) *SessionScreen {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SessionScreen{
		cfg:    cfg,
		engine: recognition.NewTypedEngine(),
		input:  components.NewTextInput("Skriv ordet du læser...", 40),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return tea.Batch(s.initSession(), s.input.Init())
}

func (s *SessionScreen) Title() string {
	return "Træning"
}

// HandlesEscape keeps the app from popping a running session on Esc.
func (s *SessionScreen) HandlesEscape() bool { return s.errMsg == "" }

func (s *SessionScreen) Status() layout.Status {
	st := layout.Status{StudentID: s.cfg.StudentID, Level: s.phase.Level}
	if st.Level == 0 {
		st.Level = s.sc.StartLevel
	}
	if st.Level == 0 {
		st.Level = s.cfg.StartLevel
	}
	return st
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{{Key: "any key", Description: "Tilbage"}}
	}
	if s.showingQuitConfirm {
		return []layout.KeyHint{
			{Key: "J", Description: "Stop træningen"},
			{Key: "N", Description: "Fortsæt"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Svar"},
		{Key: "Tab", Description: "Spring over"},
		{Key: "Esc", Description: "Stop"},
	}
}

func (s *SessionScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, s.errMsg)
	}
	if s.runner == nil {
		return renderLoading(width)
	}
	if s.showingQuitConfirm {
		return renderQuitConfirm(width)
	}
	return s.renderWordView(width, height)
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionInitMsg:
		return s.handleInit(msg)

	case runnerEventMsg:
		return s.handleEvent(msg.Event)

	case runDoneMsg:
		return s.handleDone(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.runner != nil && !s.showingQuitConfirm {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// initSession opens the session on the backend.
func (s *SessionScreen) initSession() tea.Cmd {
	cfg := s.cfg
	return func() tea.Msg {
		if cfg.Backend == nil {
			return sessionInitMsg{Err: errors.New("ingen backend konfigureret")}
		}
		ctx := context.Background()
		level := cfg.StartLevel
		if level == 0 {
			level = resumeLevel(ctx, cfg.Backend, cfg.StudentID)
		}
		sc, err := cfg.Backend.StartSession(ctx, backend.StartRequest{
			StudentID:    cfg.StudentID,
			StartLevel:   level,
			FeedbackMode: cfg.FeedbackMode,
			Lang:         cfg.Lang,
		})
		return sessionInitMsg{Context: sc, Err: err}
	}
}

// resumeLevel is the estimated level of the student's latest finished
// session, or the lowest level for a new student.
func resumeLevel(ctx context.Context, svc backend.Backend, studentID string) int {
	list, err := svc.ListSessions(ctx, studentID)
	if err != nil {
		return difficulty.MinLevel
	}
	for _, s := range list {
		if s.EstimatedLevel != nil {
			return *s.EstimatedLevel
		}
	}
	return difficulty.MinLevel
}

func (s *SessionScreen) handleInit(msg sessionInitMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.cfg.Logger.Error("session start failed", "error", msg.Err)
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.sc = msg.Context
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.events = make(chan sess.Event, eventBuffer)

	var opts []sess.Option
	if s.cfg.WordsPerSession > 0 {
		opts = append(opts, sess.WithWordsPerSession(s.cfg.WordsPerSession))
	}
	s.runner = sess.NewRunner(s.sc, sess.Deps{
		Words:      s.cfg.Backend,
		Answers:    s.cfg.Backend,
		Finisher:   s.cfg.Backend,
		Results:    s.cfg.Backend,
		Recognizer: recognition.NewAdapter(s.engine, s.cfg.Logger),
		Recorder:   s.cfg.Recorder,
		Blobs:      s.cfg.Blobs,
		Clock:      s.cfg.Clock,
		Observer:   forward(ctx, s.events),
		Logger:     s.cfg.Logger,
		Metrics:    s.cfg.Metrics,
	}, opts...)

	return s, tea.Batch(run(ctx, s.runner, s.events), waitForEvent(s.events))
}

// forward queues runner events for the UI. Frames are dropped when the
// UI falls behind; phase changes wait for room.
func forward(ctx context.Context, ch chan<- sess.Event) sess.Observer {
	return func(ev sess.Event) {
		if ev.Kind == sess.EventFrame {
			select {
			case ch <- ev:
			default:
			}
			return
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
}

// run plays the session. The runner emits nothing after Run returns, so
// the channel can be closed here.
func run(ctx context.Context, r *sess.Runner, ch chan sess.Event) tea.Cmd {
	return func() tea.Msg {
		res, err := r.Run(ctx)
		close(ch)
		return runDoneMsg{Result: res, Err: err}
	}
}

func waitForEvent(ch <-chan sess.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return runnerEventMsg{Event: ev}
	}
}

func (s *SessionScreen) handleEvent(ev sess.Event) (screen.Screen, tea.Cmd) {
	next := waitForEvent(s.events)
	if ev.Kind == sess.EventFrame {
		if ev.Index == s.phase.Index {
			s.bar = ev.Bar
		}
		return s, next
	}

	switch ev.Phase {
	case sess.PhasePreRoll:
		s.bar = 0
		s.feedback = nil
		s.input.Reset()
	case sess.PhaseFeedback:
		fb := ev
		s.feedback = &fb
		s.input.Submit(ev.Correct)
	}
	s.phase = ev
	return s, next
}

func (s *SessionScreen) handleDone(msg runDoneMsg) (screen.Screen, tea.Cmd) {
	if s.cancel != nil {
		s.cancel()
	}
	s.engine.Stop()
	if msg.Err != nil {
		if s.quitting || errors.Is(msg.Err, context.Canceled) {
			return s, router.Pop()
		}
		s.cfg.Logger.Error("session failed", "error", msg.Err)
		if errors.Is(msg.Err, sess.ErrWordFetch) {
			s.errMsg = "Kunne ikke hente ord. Er ordlisten importeret?"
		} else {
			s.errMsg = msg.Err.Error()
		}
		return s, nil
	}
	return s, router.Replace(s.newSummaryScreenAdapter(msg.Result))
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, router.Pop()
	}
	if s.runner == nil {
		if key == "esc" {
			return s, router.Pop()
		}
		return s, nil
	}

	if s.showingQuitConfirm {
		switch key {
		case "j", "J", "y", "Y":
			s.showingQuitConfirm = false
			s.quitting = true
			s.engine.Stop()
			s.cancel()
		case "n", "N", "esc":
			s.showingQuitConfirm = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.showingQuitConfirm = true
		return s, nil
	case "tab":
		s.runner.Skip()
		return s, nil
	case "enter":
		if s.engine.Submit(s.input.Value()) {
			s.input.Reset()
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}
