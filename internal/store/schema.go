package store

import (
	"context"
	"fmt"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS words (
		id INTEGER PRIMARY KEY,
		text TEXT NOT NULL,
		level INTEGER NOT NULL,
		phase TEXT NOT NULL DEFAULT '',
		spelling_pattern TEXT NOT NULL DEFAULT '',
		dyslexia_risk TEXT NOT NULL DEFAULT '',
		dyslexia_type TEXT NOT NULL DEFAULT '',
		interest_category TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS words_level ON words(level)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		start_level INTEGER NOT NULL,
		feedback_mode TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		estimated_level INTEGER,
		correct_total INTEGER NOT NULL DEFAULT 0,
		total_words INTEGER NOT NULL DEFAULT 0,
		mastery INTEGER,
		score REAL,
		accuracy REAL,
		speed REAL,
		audio_key TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_student ON sessions(student_id, finished_at)`,
	`CREATE TABLE IF NOT EXISTS session_words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		word_id INTEGER NOT NULL,
		expected TEXT NOT NULL,
		recognized TEXT NOT NULL DEFAULT '',
		candidate TEXT NOT NULL DEFAULT '',
		correct INTEGER NOT NULL,
		level INTEGER NOT NULL,
		response_ms INTEGER NOT NULL DEFAULT 0,
		visible_ms INTEGER NOT NULL DEFAULT 0,
		start_ms INTEGER NOT NULL DEFAULT 0,
		end_ms INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		error_type TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS session_words_session ON session_words(session_id)`,
	`CREATE TABLE IF NOT EXISTS mastery (
		student_id TEXT NOT NULL,
		level INTEGER NOT NULL,
		value INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (student_id, level)
	)`,
	`CREATE TABLE IF NOT EXISTS disputes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_word_id INTEGER NOT NULL REFERENCES session_words(id) ON DELETE CASCADE,
		session_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		expected TEXT NOT NULL,
		recognized TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		audio BLOB,
		audio_mime TEXT NOT NULL DEFAULT '',
		error_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
		ai_verdict TEXT NOT NULL DEFAULT '',
		ai_reasoning TEXT NOT NULL DEFAULT '',
		ai_confidence REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		reviewed_at INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		mime TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS blobs_created ON blobs(created_at)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range ddl {
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("%.40s: %w", stmt, err)
		}
	}
	return nil
}
