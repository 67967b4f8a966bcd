// Package app wires the screens into the Bubble Tea program.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/laesemaskine/internal/audio"
	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/dispute"
	"github.com/abhisek/laesemaskine/internal/observe"
	"github.com/abhisek/laesemaskine/internal/router"
	"github.com/abhisek/laesemaskine/internal/screen"
	"github.com/abhisek/laesemaskine/internal/screens/disputes"
	"github.com/abhisek/laesemaskine/internal/screens/history"
	"github.com/abhisek/laesemaskine/internal/screens/home"
	"github.com/abhisek/laesemaskine/internal/screens/results"
	sessionscreen "github.com/abhisek/laesemaskine/internal/screens/session"
	"github.com/abhisek/laesemaskine/internal/ui/layout"
)

// Options configure the program.
type Options struct {
	// Context ends the program when canceled.
	Context  context.Context
	Backend  backend.Backend
	Blobs    blob.Store
	Recorder audio.Recorder
	Logger   *slog.Logger
	Metrics  *observe.Metrics

	StudentID       string
	StartLevel      int
	Lang            string
	FeedbackMode    string
	WordsPerSession int

	// AllStudents shows every student's answers in the results view.
	AllStudents bool
	// StartTraining opens a session right away instead of the menu.
	StartTraining bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	// first is pushed over the home screen on start.
	first  func() screen.Screen
	width  int
	height int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	flow := dispute.New(opts.Backend, opts.Blobs, opts.Logger)

	training := func() screen.Screen {
		return sessionscreen.New(sessionscreen.Config{
			Backend:         opts.Backend,
			Blobs:           opts.Blobs,
			Recorder:        opts.Recorder,
			Flow:            flow,
			Logger:          opts.Logger,
			Metrics:         opts.Metrics,
			StudentID:       opts.StudentID,
			StartLevel:      opts.StartLevel,
			Lang:            opts.Lang,
			FeedbackMode:    opts.FeedbackMode,
			WordsPerSession: opts.WordsPerSession,
		})
	}
	resultsFor := opts.StudentID
	if opts.AllStudents {
		resultsFor = ""
	}

	homeScreen := home.New(opts.Backend, opts.StudentID, home.Screens{
		Training: training,
		History:  func() screen.Screen { return history.New(opts.Backend, opts.StudentID) },
		Results:  func() screen.Screen { return results.New(opts.Backend, resultsFor) },
		Disputes: func() screen.Screen { return disputes.New(opts.Backend) },
	}, opts.Logger)

	m := AppModel{router: router.New(homeScreen)}
	if opts.StartTraining {
		m.first = training
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	cmd := m.router.Active().Init()
	if m.first != nil {
		return tea.Batch(cmd, router.Push(m.first()))
	}
	return cmd
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if q, ok := m.router.Active().(screen.QuitHandler); ok {
				if cmd := q.OnQuit(); cmd != nil {
					return m, tea.Sequence(cmd, tea.Quit)
				}
			}
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, router.Pop()
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the header, the active screen and the footer.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	var status layout.Status
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(kp.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Afslut"})
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Tilbage"},
			{Key: "Ctrl+C", Description: "Afslut"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Naviger"},
			{Key: "Enter", Description: "Vælg"},
			{Key: "Ctrl+C", Description: "Afslut"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	var popts []tea.ProgramOption
	if opts.Context != nil {
		popts = append(popts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(newAppModel(opts), popts...)
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Fejl under kørsel:", err)
		return err
	}
	return nil
}
