package backend

import (
	"context"

	"github.com/abhisek/laesemaskine/internal/store"
)

// Difficulty returns where a student struggles, grouped by word attribute.
func (s *Service) Difficulty(ctx context.Context, studentID string) (*store.Breakdown, error) {
	return s.store.Sessions().DifficultyBreakdown(ctx, studentID)
}

// Drilldown lists the answers behind one breakdown row.
func (s *Service) Drilldown(ctx context.Context, studentID, group, key string) ([]AnswerItem, error) {
	rows, err := s.store.Sessions().Drilldown(ctx, studentID, group, key)
	if err != nil {
		return nil, err
	}
	return s.answerItems(rows), nil
}
