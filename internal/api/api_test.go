package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

const words = `{"words": [
  {"id": 1, "ord": "kat", "niveau": 1, "interessekategori": "dyr"},
  {"id": 2, "ord": "hund", "niveau": 1},
  {"id": 3, "ord": "hunden", "niveau": 3, "ordblind_type": "endelse"}
]}`

func newTestClient(t *testing.T, opts ...ServerOption) (*Client, *httptest.Server) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := backend.New(st)
	_, err = svc.ImportWords(context.Background(), strings.NewReader(words))
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(svc, opts...).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/"), srv
}

func TestHealthAndCompatibility(t *testing.T) {
	c, _ := newTestClient(t, WithVersion("v1.4.0"))
	ctx := context.Background()

	v, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", v)

	tests := []struct {
		local   string
		wantErr bool
	}{
		{"v1.0.0", false},
		{"v1.9.2", false},
		{"v2.0.0", true},
		{"(devel)", false},
	}
	for _, tt := range tests {
		t.Run(tt.local, func(t *testing.T) {
			err := c.CheckCompatibility(ctx, tt.local)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIncompatibleServer)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWordsQueryValidation(t *testing.T) {
	c, srv := newTestClient(t)

	got, err := c.FetchWords(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusOK},
		{"?level=abc", http.StatusBadRequest},
		{"?count=0", http.StatusBadRequest},
		{"?band=-1", http.StatusBadRequest},
		{"?level=99&count=5", http.StatusOK},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + "/api/words" + tt.query)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET /api/words%s = %d, want %d", tt.query, resp.StatusCode, tt.want)
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.StartSession(ctx, backend.StartRequest{})
	assert.ErrorIs(t, err, backend.ErrInvalidInput)

	sc, err := c.StartSession(ctx, backend.StartRequest{StudentID: "elev", StartLevel: 3})
	require.NoError(t, err)
	require.NotEmpty(t, sc.SessionID)
	assert.Equal(t, "da-DK", sc.Lang)

	hunden := session.Word{ID: 3, Text: "hunden", Level: 3}
	v, err := c.SubmitAnswer(ctx, sc.SessionID, session.AnswerRecord{Word: hunden, Recognized: "hund", Level: 3, ResponseTimeMs: 800})
	require.NoError(t, err)
	assert.False(t, v.Correct)
	assert.Equal(t, "missing_ending", string(v.Diagnostics.ErrorType))

	v, err = c.SubmitAnswer(ctx, sc.SessionID, session.AnswerRecord{Word: hunden, Recognized: "hunden", Level: 3, ResponseTimeMs: 800})
	require.NoError(t, err)
	assert.True(t, v.Correct)

	res, err := c.FinishSession(ctx, sc.SessionID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectTotal)
	assert.Equal(t, 2, res.TotalWords)
	require.NotNil(t, res.Mastery)

	require.NoError(t, c.SaveResult(ctx, session.Result{SessionID: sc.SessionID, AudioKey: "lm_audio_1"}))

	detail, err := c.Session(ctx, sc.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "lm_audio_1", detail.Session.AudioKey)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "endelse", detail.Items[0].DyslexiaType)

	list, err := c.ListSessions(ctx, "elev")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	items, err := c.Answers(ctx, backend.AnswerFilter{StudentID: "elev", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	overview, err := c.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, overview, 1)
	assert.Equal(t, 3, overview[0].LastLevel)

	b, err := c.Difficulty(ctx, "elev")
	require.NoError(t, err)
	assert.Contains(t, b.ByDyslexiaType, store.BreakdownRow{Key: "endelse", Total: 2, Wrong: 1, WrongRate: 0.5})

	rows, err := c.Drilldown(ctx, "elev", store.GroupLevel, "3")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = c.Drilldown(ctx, "elev", "farve", "rød")
	assert.ErrorIs(t, err, store.ErrUnknownGroup)

	_, err = c.SubmitAnswer(ctx, sc.SessionID, session.AnswerRecord{Word: hunden, Recognized: "hunden"})
	assert.ErrorIs(t, err, store.ErrSessionFinished)

	_, err = c.Session(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDisputeRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	sc, err := c.StartSession(ctx, backend.StartRequest{StudentID: "elev", StartLevel: 1})
	require.NoError(t, err)
	v, err := c.SubmitAnswer(ctx, sc.SessionID, session.AnswerRecord{Word: session.Word{ID: 1, Text: "kat", Level: 1}, Recognized: "hat", Level: 1})
	require.NoError(t, err)

	d, err := c.CreateDispute(ctx, backend.DisputeRequest{SessionWordID: v.SessionWordID, Note: "kat", Audio: []byte("RIFF"), AudioMIME: "audio/wav"})
	require.NoError(t, err)
	assert.Positive(t, d.ID)
	assert.True(t, d.HasAudio)
	assert.Equal(t, store.DisputePending, d.Status)

	audio, err := c.DisputeAudio(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, audio)
	assert.Equal(t, []byte("RIFF"), audio.Data)
	assert.Equal(t, "audio/wav", audio.MIME)

	list, err := c.Disputes(ctx, store.DisputeFilter{Status: store.DisputePending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hat", list[0].Recognized)

	_, err = c.Disputes(ctx, store.DisputeFilter{Status: "maybe"})
	assert.ErrorIs(t, err, store.ErrInvalidStatus)
	assert.ErrorIs(t, c.ReviewDispute(ctx, d.ID, "maybe"), store.ErrInvalidStatus)
	require.NoError(t, c.ReviewDispute(ctx, d.ID, store.DisputeRejected))

	queued, err := c.SendToAI(ctx, d.ID, "near_match")
	require.NoError(t, err)
	assert.False(t, queued, "no reviewer configured")

	list, err = c.Disputes(ctx, store.DisputeFilter{Status: store.DisputeApproved})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "near_match", list[0].ErrorType)

	require.NoError(t, c.DeleteDisputeAudio(ctx, d.ID))
	audio, err = c.DisputeAudio(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, audio)

	_, err = c.DisputeAudio(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestErrorBody(t *testing.T) {
	_, srv := newTestClient(t)

	resp, err := http.Post(srv.URL+"/api/sessions/start", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, kindInvalidInput, body.Error)
}

func TestStatusErrorIs(t *testing.T) {
	tests := []struct {
		err    *StatusError
		target error
		want   bool
	}{
		{&StatusError{Code: 404}, store.ErrNotFound, true},
		{&StatusError{Code: 409}, store.ErrSessionFinished, true},
		{&StatusError{Code: 400, Kind: kindInvalidInput}, backend.ErrInvalidInput, true},
		{&StatusError{Code: 400, Kind: kindInvalidInput}, store.ErrInvalidStatus, false},
		{&StatusError{Code: 400, Kind: kindUnknownGroup}, store.ErrUnknownGroup, true},
		{&StatusError{Code: 500}, store.ErrNotFound, false},
	}
	for _, tt := range tests {
		if got := errors.Is(tt.err, tt.target); got != tt.want {
			t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
		}
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(nil).Serve(ctx, ln) }()

	c := NewClient("http://" + ln.Addr().String())
	require.Eventually(t, func() bool {
		_, err := c.Health(context.Background())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
