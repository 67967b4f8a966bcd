package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// MasteryRepo stores per-level mastery (1..10) per student.
type MasteryRepo struct{ s *Store }

// Get returns the stored mastery by level. Levels never trained are absent.
func (r *MasteryRepo) Get(ctx context.Context, studentID string) (map[int]int, error) {
	var rows []struct {
		Level int `sql:"level"`
		Value int `sql:"value"`
	}
	q := sqlite.Select("level", "value").From(sqlite.Table("mastery")).
		Where(entsql.EQ("student_id", studentID))
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("get mastery: %w", err)
	}
	out := make(map[int]int, len(rows))
	for _, row := range rows {
		out[row.Level] = row.Value
	}
	return out, nil
}

// Set upserts the given levels and leaves the others untouched.
func (r *MasteryRepo) Set(ctx context.Context, studentID string, values map[int]int, at time.Time) error {
	if len(values) == 0 {
		return nil
	}
	return r.s.inTx(ctx, func(tx dialect.Tx) error {
		for level, v := range values {
			ins := sqlite.Insert("mastery").
				Columns("student_id", "level", "value", "updated_at").
				Values(studentID, level, v, at.UnixMilli()).
				OnConflict(
					entsql.ConflictColumns("student_id", "level"),
					entsql.ResolveWith(func(u *entsql.UpdateSet) {
						u.SetExcluded("value")
						u.SetExcluded("updated_at")
					}),
				)
			if _, err := exec(ctx, tx, ins); err != nil {
				return fmt.Errorf("set mastery level %d: %w", level, err)
			}
		}
		return nil
	})
}

// Reset deletes the student's stored mastery and reports how many levels
// were cleared.
func (r *MasteryRepo) Reset(ctx context.Context, studentID string) (int, error) {
	del := sqlite.Delete("mastery").Where(entsql.EQ("student_id", studentID))
	res, err := exec(ctx, r.s.drv, del)
	if err != nil {
		return 0, fmt.Errorf("reset mastery: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
