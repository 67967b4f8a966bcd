package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/laesemaskine/internal/diagnosis"
	"github.com/abhisek/laesemaskine/internal/router"
	sess "github.com/abhisek/laesemaskine/internal/session"
)

func key(code rune, text string) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code, Text: text}
}

// started returns a screen that has an open session but no running runner.
func started(mode string) *SessionScreen {
	s := New(Config{StudentID: "elev1", StartLevel: 4})
	s.sc = sess.Context{SessionID: "s1", StudentID: "elev1", StartLevel: 4, FeedbackMode: mode}
	s.runner = sess.NewRunner(s.sc, sess.Deps{})
	s.events = make(chan sess.Event, eventBuffer)
	s.cancel = func() {}
	return s
}

func phase(p sess.Phase, word string, index int) runnerEventMsg {
	return runnerEventMsg{Event: sess.Event{
		Kind:  sess.EventPhase,
		Phase: p,
		Index: index,
		Total: 20,
		Level: 5,
		Word:  sess.Word{ID: int64(index + 1), Text: word, Level: 5},
	}}
}

func TestInitErrorShowsMessage(t *testing.T) {
	s := New(Config{StudentID: "elev1"})
	scr, cmd := s.Update(sessionInitMsg{Err: errors.New("server nede")})
	assert.Nil(t, cmd)

	view := scr.View(80, 24)
	assert.Contains(t, view, "server nede")
	assert.False(t, s.HandlesEscape())

	_, cmd = scr.Update(key('x', "x"))
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
}

func TestInitWithoutBackend(t *testing.T) {
	s := New(Config{})
	msg := s.initSession()()
	init, ok := msg.(sessionInitMsg)
	require.True(t, ok)
	assert.Error(t, init.Err)
}

func TestPhasesDriveView(t *testing.T) {
	s := started(sess.FeedbackPerWord)

	s.Update(phase(sess.PhasePreRoll, "hunden", 0))
	assert.Contains(t, s.View(80, 24), "Gør dig klar")

	s.Update(phase(sess.PhaseExposed, "hunden", 0))
	assert.Contains(t, s.View(80, 24), "hunden")

	s.Update(phase(sess.PhasePost, "hunden", 0))
	view := s.View(80, 24)
	assert.NotContains(t, view, "hunden")
	assert.Contains(t, view, "Sig ordet")
}

func TestPerWordFeedbackShowsDiagnosis(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	fb := phase(sess.PhaseFeedback, "hunden", 0)
	fb.Event.Heard = "hund"
	fb.Event.Verdict = &sess.Verdict{
		SessionWordID: 1,
		Diagnostics:   diagnosis.Diagnose("hunden", "hund"),
	}
	s.Update(fb)

	view := s.View(80, 24)
	assert.Contains(t, view, "Hørt: hund")
	assert.Contains(t, view, fb.Event.Verdict.Diagnostics.MessageShort)
}

func TestAfterTestFeedbackHidesVerdict(t *testing.T) {
	s := started(sess.FeedbackAfterTest)
	fb := phase(sess.PhaseFeedback, "hunden", 0)
	fb.Event.Heard = "hund"
	s.Update(fb)

	view := s.View(80, 24)
	assert.Contains(t, view, "Svar registreret")
	assert.NotContains(t, view, "Hørt")
}

func TestFramesForOtherWordsIgnored(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	s.Update(phase(sess.PhaseExposed, "kat", 3))

	s.Update(runnerEventMsg{Event: sess.Event{Kind: sess.EventFrame, Index: 3, Bar: 0.5}})
	assert.InDelta(t, 0.5, s.bar, 1e-9)

	s.Update(runnerEventMsg{Event: sess.Event{Kind: sess.EventFrame, Index: 2, Bar: 0.9}})
	assert.InDelta(t, 0.5, s.bar, 1e-9)
}

func TestStatusFollowsLevel(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	assert.Equal(t, 4, s.Status().Level)

	s.Update(phase(sess.PhaseExposed, "kat", 0))
	assert.Equal(t, 5, s.Status().Level)
	assert.Equal(t, "elev1", s.Status().StudentID)
}

func TestQuitConfirm(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	canceled := false
	s.cancel = func() { canceled = true }
	assert.True(t, s.HandlesEscape())

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.True(t, s.showingQuitConfirm)
	assert.Contains(t, s.View(80, 24), "Stop træningen?")

	s.Update(key('n', "n"))
	assert.False(t, s.showingQuitConfirm)
	assert.False(t, canceled)

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	s.Update(key('j', "j"))
	assert.True(t, canceled)
	assert.True(t, s.quitting)

	_, cmd := s.Update(runDoneMsg{Err: context.Canceled})
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
}

func TestWordFetchErrorExplains(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	_, cmd := s.Update(runDoneMsg{Err: sess.ErrWordFetch})
	assert.Nil(t, cmd)
	assert.Contains(t, s.View(80, 24), "ordlisten")
}

func TestDoneReplacesWithSummary(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	_, cmd := s.Update(runDoneMsg{Result: sess.Result{SessionID: "s1", EstimatedLevel: 6, TotalWords: 20}})
	require.NotNil(t, cmd)

	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Resultat", msg.Screen.Title())
}

func TestForwardDropsFramesWhenFull(t *testing.T) {
	ch := make(chan sess.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	obs := forward(ctx, ch)

	obs(sess.Event{Kind: sess.EventFrame, Bar: 0.1})
	obs(sess.Event{Kind: sess.EventFrame, Bar: 0.2})
	assert.Len(t, ch, 1)

	cancel()
	obs(sess.Event{Kind: sess.EventPhase, Phase: sess.PhaseExposed})
	assert.Len(t, ch, 1)
}

func TestTypedAnswerGoesToEngine(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	for _, r := range "kat" {
		s.Update(key(r, string(r)))
	}
	assert.Equal(t, "kat", s.input.Value())

	// Nothing is listening, so the input is kept.
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Equal(t, "kat", s.input.Value())
}

func TestKeyHintsChangeWithMode(t *testing.T) {
	s := started(sess.FeedbackPerWord)
	var keys []string
	for _, h := range s.KeyHints() {
		keys = append(keys, h.Key)
	}
	assert.Equal(t, "Enter Tab Esc", strings.Join(keys, " "))

	s.showingQuitConfirm = true
	assert.Len(t, s.KeyHints(), 2)
}
