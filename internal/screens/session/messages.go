package session

import (
	sess "github.com/abhisek/laesemaskine/internal/session"
)

// sessionInitMsg is sent when the backend has opened the session.
type sessionInitMsg struct {
	Context sess.Context
	Err     error
}

// runnerEventMsg carries one runner event to the screen.
type runnerEventMsg struct {
	Event sess.Event
}

// runDoneMsg is sent when the runner returns.
type runDoneMsg struct {
	Result sess.Result
	Err    error
}
