package session

import (
	"github.com/abhisek/laesemaskine/internal/screen"
	"github.com/abhisek/laesemaskine/internal/screens/summary"
	sess "github.com/abhisek/laesemaskine/internal/session"
)

// newSummaryScreenAdapter creates the summary screen for a finished run.
func (s *SessionScreen) newSummaryScreenAdapter(res sess.Result) screen.Screen {
	sum := sess.BuildSummary(s.runner.Records(), res)
	return summary.New(sum, summary.Options{
		Flow:      s.cfg.Flow,
		Logger:    s.cfg.Logger,
		StudentID: s.cfg.StudentID,
		Feedback:  s.sc.FeedbackMode,
	})
}
