package summary

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/dispute"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

type fakeCreator struct {
	reqs []backend.DisputeRequest
}

func (c *fakeCreator) CreateDispute(_ context.Context, req backend.DisputeRequest) (*store.Dispute, error) {
	c.reqs = append(c.reqs, req)
	return &store.Dispute{ID: int64(len(c.reqs)), SessionWordID: req.SessionWordID}, nil
}

// brokenStore fails every delete.
type brokenStore struct {
	*blob.MemoryStore
}

func (brokenStore) Delete(context.Context, string) error {
	return errors.New("disk full")
}

func testSummary() *session.Summary {
	mastery := 7
	records := []session.AnswerRecord{
		{Word: session.Word{Text: "kat", Level: 3}, Recognized: "kat", Correct: true, Level: 3, SessionWordID: 1, ResponseTimeMs: 900},
		{Word: session.Word{Text: "hunden", Level: 4}, Recognized: "hund", Level: 4, SessionWordID: 2, StartMs: 1000, EndMs: 2500, ResponseTimeMs: 1500},
		{Word: session.Word{Text: "skib", Level: 4}, Level: 4, SessionWordID: 3, Skipped: true},
	}
	return session.BuildSummary(records, session.Result{
		SessionID:      "s1",
		EstimatedLevel: 4,
		CorrectTotal:   1,
		TotalWords:     3,
		Mastery:        &mastery,
		AudioKey:       "lm_audio_s1_1",
	})
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testSummary(), Options{})
	if s.Title() != "Resultat" {
		t.Errorf("Title = %q, want %q", s.Title(), "Resultat")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s := New(testSummary(), Options{StudentID: "elev1"})
	view := s.View(80, 40)
	assert.Contains(t, view, "Niveau 4")
	assert.Contains(t, view, "1/3 rigtige")
	assert.Contains(t, view, "Mestring 7/10")
	assert.Contains(t, view, "hunden")
	assert.Contains(t, view, "(intet)")
	assert.Equal(t, 4, s.Status().Level)
}

func TestSummaryScreen_NoDisputeWithoutFlow(t *testing.T) {
	s := New(testSummary(), Options{})
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'd', Text: "d"})
	assert.Nil(t, cmd)
	assert.Len(t, s.KeyHints(), 1)
}

func TestSummaryScreen_Dispute(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, blob.Blob{Key: "lm_audio_s1_1", Data: []byte("opus"), MIME: "audio/ogg", CreatedAt: time.Now()}))
	creator := &fakeCreator{}
	flow := dispute.New(creator, blobs, nil)

	s := New(testSummary(), Options{Flow: flow})
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'd', Text: "d"})
	require.NotNil(t, cmd)
	assert.Contains(t, s.View(80, 40), "sender")

	// A second press while sending is ignored.
	_, again := s.Update(tea.KeyPressMsg{Code: 'd', Text: "d"})
	assert.Nil(t, again)

	s.Update(cmd())
	require.Len(t, creator.reqs, 1)
	assert.Equal(t, int64(2), creator.reqs[0].SessionWordID)
	assert.Equal(t, []byte("opus"), creator.reqs[0].Audio)
	assert.True(t, flow.Sent(2))
	assert.Contains(t, s.View(80, 40), "sendt")

	_, cmd = s.Update(tea.KeyPressMsg{Code: 'd', Text: "d"})
	assert.Nil(t, cmd)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd = s.Update(tea.KeyPressMsg{Code: 'd', Text: "d"})
	require.NotNil(t, cmd)
	s.Update(cmd())
	require.Len(t, creator.reqs, 2)
	assert.Equal(t, int64(3), creator.reqs[1].SessionWordID)
}

func TestSummaryScreen_LeaveDiscardsRecording(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, blob.Blob{Key: "lm_audio_s1_1", Data: []byte("opus"), CreatedAt: time.Now()}))
	flow := dispute.New(&fakeCreator{}, blobs, nil)

	s := New(testSummary(), Options{Flow: flow})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)

	_, cmd = s.Update(cmd())
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())

	b, err := blobs.Get(ctx, "lm_audio_s1_1")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestSummaryScreen_LeaveLogsDiscardFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	flow := dispute.New(&fakeCreator{}, brokenStore{blob.NewMemoryStore()}, nil)

	s := New(testSummary(), Options{Flow: flow, Logger: logger})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	require.Error(t, msg.(discardDoneMsg).err)

	_, cmd = s.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "disk full")
}

func TestSummaryScreen_OnQuitDiscardsRecording(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, blob.Blob{Key: "lm_audio_s1_1", Data: []byte("pcm"), CreatedAt: time.Now()}))
	flow := dispute.New(&fakeCreator{}, blobs, nil)

	assert.Nil(t, New(testSummary(), Options{}).OnQuit())

	cmd := New(testSummary(), Options{Flow: flow}).OnQuit()
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	b, err := blobs.Get(ctx, "lm_audio_s1_1")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestSummaryScreen_Navigation_Esc(t *testing.T) {
	s := New(testSummary(), Options{})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
}
