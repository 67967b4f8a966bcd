package store

import (
	"context"
	"fmt"
	"math/rand/v2"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Word is a row in the word list.
type Word struct {
	ID               int64  `sql:"id"`
	Text             string `sql:"text"`
	Level            int    `sql:"level"`
	Phase            string `sql:"phase"`
	SpellingPattern  string `sql:"spelling_pattern"`
	DyslexiaRisk     string `sql:"dyslexia_risk"`
	DyslexiaType     string `sql:"dyslexia_type"`
	InterestCategory string `sql:"interest_category"`
}

var wordColumns = []string{
	"id", "text", "level", "phase", "spelling_pattern",
	"dyslexia_risk", "dyslexia_type", "interest_category",
}

// WordRepo reads and writes the word list.
type WordRepo struct{ s *Store }

// Import upserts words by ID and returns how many were written.
func (r *WordRepo) Import(ctx context.Context, words []Word) (int, error) {
	if len(words) == 0 {
		return 0, nil
	}
	err := r.s.inTx(ctx, func(tx dialect.Tx) error {
		for _, w := range words {
			ins := sqlite.Insert("words").
				Columns(wordColumns...).
				Values(w.ID, w.Text, w.Level, w.Phase, w.SpellingPattern,
					w.DyslexiaRisk, w.DyslexiaType, w.InterestCategory).
				OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
			if _, err := exec(ctx, tx, ins); err != nil {
				return fmt.Errorf("import word %d: %w", w.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(words), nil
}

// Sample returns up to count random words. band 0 keeps exactly level;
// otherwise words within |word level - level| <= band qualify. When the band
// holds fewer than count words the pool widens to every word with a level.
func (r *WordRepo) Sample(ctx context.Context, level, count, band int) ([]Word, error) {
	if count <= 0 {
		return nil, nil
	}
	lo, hi := level-band, level+band
	if band <= 0 {
		lo, hi = level, level
	}
	pool, err := r.query(ctx, entsql.And(entsql.GTE("level", lo), entsql.LTE("level", hi)))
	if err != nil {
		return nil, err
	}
	if len(pool) < count {
		pool, err = r.query(ctx, entsql.GT("level", 0))
		if err != nil {
			return nil, err
		}
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool, nil
}

// Get returns one word.
func (r *WordRepo) Get(ctx context.Context, id int64) (*Word, error) {
	words, err := r.query(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrNotFound
	}
	return &words[0], nil
}

// Count returns the number of stored words.
func (r *WordRepo) Count(ctx context.Context) (int, error) {
	var rows []struct {
		N int `sql:"n"`
	}
	q := sqlite.Select(entsql.As(entsql.Count("*"), "n")).From(sqlite.Table("words"))
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].N, nil
}

func (r *WordRepo) query(ctx context.Context, p *entsql.Predicate) ([]Word, error) {
	q := sqlite.Select(wordColumns...).From(sqlite.Table("words")).Where(p).OrderBy("id")
	var words []Word
	if err := scan(ctx, r.s.drv, q, &words); err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	return words, nil
}
