package home

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/screen"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

type stubScreen struct{ title string }

func (s stubScreen) Init() tea.Cmd                           { return nil }
func (s stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s stubScreen) View(int, int) string                    { return s.title }
func (s stubScreen) Title() string                           { return s.title }

func newService(t *testing.T) *backend.Service {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:home_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return backend.New(st)
}

func TestHomeShowsLastSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	sc, err := svc.StartSession(ctx, backend.StartRequest{StudentID: "elev1", StartLevel: 5})
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, sc.SessionID, session.AnswerRecord{
		Word: session.Word{ID: 1, Text: "kat", Level: 5}, Recognized: "kat", Level: 5,
	})
	require.NoError(t, err)
	_, err = svc.FinishSession(ctx, sc.SessionID, 6)
	require.NoError(t, err)

	h := New(svc, "elev1", Screens{}, nil)
	assert.Contains(t, h.View(80, 30), "Henter")

	h.Update(h.Init()())
	view := h.View(80, 30)
	assert.Contains(t, view, "Niveau 6")
	assert.Contains(t, view, "1/1 rigtige")
	assert.Equal(t, 6, h.Status().Level)
}

func TestHomeWithoutSessions(t *testing.T) {
	h := New(newService(t), "ny", Screens{}, nil)
	h.Update(h.Init()())
	assert.Contains(t, h.View(80, 30), "Ingen træninger endnu")
	assert.Zero(t, h.Status().Level)
}

func TestHomeMenuPushesScreens(t *testing.T) {
	h := New(nil, "elev1", Screens{
		Training: func() screen.Screen { return stubScreen{"Træning"} },
		Results:  func() screen.Screen { return stubScreen{"Resultater"} },
	}, nil)

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Træning", push.Screen.Title())

	// History is disabled, so down skips to Results.
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd = h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	push = cmd().(router.PushScreenMsg)
	assert.Equal(t, "Resultater", push.Screen.Title())
}
