package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/laesemaskine/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

func titles(r *Router) []string {
	out := make([]string, 0, len(r.stack))
	for _, s := range r.stack {
		out = append(out, s.Title())
	}
	return out
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		name string
		ops  func(r *Router)
		want []string
	}{
		{
			name: "push training over home",
			ops:  func(r *Router) { r.Push(&stubScreen{title: "training"}) },
			want: []string{"home", "training"},
		},
		{
			name: "pop back to home",
			ops: func(r *Router) {
				r.Push(&stubScreen{title: "results"})
				r.Pop()
			},
			want: []string{"home"},
		},
		{
			name: "pop keeps the last screen",
			ops:  func(r *Router) { r.Pop() },
			want: []string{"home"},
		},
		{
			name: "replace root",
			ops:  func(r *Router) { r.Replace(&stubScreen{title: "disputes"}) },
			want: []string{"disputes"},
		},
		{
			name: "summary replaces training",
			ops: func(r *Router) {
				r.Update(PushScreenMsg{Screen: &stubScreen{title: "training"}})
				r.Update(ReplaceScreenMsg{Screen: &stubScreen{title: "summary"}})
			},
			want: []string{"home", "summary"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&stubScreen{title: "home"})
			tt.ops(r)
			got := titles(r)
			if len(got) != len(tt.want) {
				t.Fatalf("stack = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("stack = %v, want %v", got, tt.want)
				}
			}
			if r.Depth() != len(tt.want) {
				t.Errorf("Depth() = %d, want %d", r.Depth(), len(tt.want))
			}
			if r.Active().Title() != tt.want[len(tt.want)-1] {
				t.Errorf("Active() = %q, want %q", r.Active().Title(), tt.want[len(tt.want)-1])
			}
		})
	}
}

func TestPushAndReplaceRunInit(t *testing.T) {
	r := New(&stubScreen{title: "home"})

	training := &stubScreen{title: "training"}
	r.Update(PushScreenMsg{Screen: training})
	if !training.initRan {
		t.Error("pushed screen was not initialised")
	}

	summary := &stubScreen{title: "summary"}
	r.Replace(summary)
	if !summary.initRan {
		t.Error("replacing screen was not initialised")
	}
}

func TestCmdHelpers(t *testing.T) {
	s := &stubScreen{title: "history"}
	if msg, ok := Push(s)().(PushScreenMsg); !ok || msg.Screen != s {
		t.Errorf("Push() produced %#v", msg)
	}
	if msg, ok := Replace(s)().(ReplaceScreenMsg); !ok || msg.Screen != s {
		t.Errorf("Replace() produced %#v", msg)
	}
	if _, ok := Pop()().(PopScreenMsg); !ok {
		t.Error("Pop() did not produce PopScreenMsg")
	}
}

// refreshScreen counts reloads when it becomes active again.
type refreshScreen struct {
	stubScreen
	refreshed int
}

func (s *refreshScreen) Refresh() tea.Cmd {
	s.refreshed++
	return nil
}

func TestPopToRoot(t *testing.T) {
	root := &refreshScreen{stubScreen: stubScreen{title: "home"}}
	r := New(root)
	r.Push(&stubScreen{title: "training"})
	r.Update(ReplaceScreenMsg{Screen: &stubScreen{title: "summary"}})
	r.Push(&stubScreen{title: "detail"})

	if r.Depth() != 3 {
		t.Fatalf("expected depth 3, got %d", r.Depth())
	}
	r.Update(PopToRootMsg{})
	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "home" {
		t.Errorf("expected active 'home', got %q", r.Active().Title())
	}
	if root.refreshed != 1 {
		t.Errorf("expected one refresh, got %d", root.refreshed)
	}
}

func TestPopRefreshesUncoveredScreen(t *testing.T) {
	root := &refreshScreen{stubScreen: stubScreen{title: "home"}}
	r := New(root)
	r.Push(&stubScreen{title: "results"})
	r.Update(PopScreenMsg{})
	if root.refreshed != 1 {
		t.Errorf("expected one refresh, got %d", root.refreshed)
	}
	r.Pop()
	if root.refreshed != 1 {
		t.Errorf("pop at bottom must not refresh, got %d", root.refreshed)
	}
}
