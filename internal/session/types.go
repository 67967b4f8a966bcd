// Package session runs one adaptive reading session: twenty words, each
// shown for a level-dependent window while the recognizer listens.
package session

import (
	"encoding/json"
	"errors"

	"github.com/abhisek/laesemaskine/internal/diagnosis"
)

// WordsPerSession is the default batch size.
const WordsPerSession = 20

// Feedback modes.
const (
	FeedbackPerWord   = "per_word"
	FeedbackAfterTest = "after_test"
)

// ErrWordFetch means the initial batch could not be loaded.
var ErrWordFetch = errors.New("session: could not fetch words")

// Word is an entry in the word list.
type Word struct {
	ID               int64  `json:"id"`
	Text             string `json:"ord"`
	Level            int    `json:"niveau"`
	Phase            string `json:"fase,omitempty"`
	SpellingPattern  string `json:"stavemoenster,omitempty"`
	DyslexiaRisk     string `json:"ordblind_risiko,omitempty"`
	DyslexiaType     string `json:"ordblind_type,omitempty"`
	InterestCategory string `json:"interessekategori,omitempty"`
}

// Context is everything a session needs to know about who is training and
// how. It is passed in explicitly and never read from ambient state.
type Context struct {
	SessionID    string      `json:"session_id"`
	StudentID    string      `json:"student_id"`
	StartLevel   int         `json:"start_level"`
	FeedbackMode string      `json:"feedback_mode"`
	Lang         string      `json:"lang"`
	Mastery      map[int]int `json:"mastery,omitempty"`
}

// MasteryFor returns the stored mastery for level, or 0 when unknown.
func (c Context) MasteryFor(level int) int {
	return c.Mastery[level]
}

// Marshal encodes the context for handoff between processes.
func (c Context) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalContext decodes a context and fills defaults.
func UnmarshalContext(data []byte) (Context, error) {
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return Context{}, err
	}
	return c.withDefaults(), nil
}

func (c Context) withDefaults() Context {
	if c.StartLevel < 1 {
		c.StartLevel = 1
	}
	if c.FeedbackMode != FeedbackAfterTest {
		c.FeedbackMode = FeedbackPerWord
	}
	if c.Lang == "" {
		c.Lang = "da-DK"
	}
	return c
}

// AnswerRecord is produced once per word.
type AnswerRecord struct {
	Word           Word   `json:"word"`
	Recognized     string `json:"recognized"`
	Candidate      string `json:"candidate,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	StartMs        int64  `json:"start_ms"`
	EndMs          int64  `json:"end_ms"`
	VisibleMs      int64  `json:"visible_ms"`
	Correct        bool   `json:"correct"`
	Level          int    `json:"level"`
	Skipped        bool   `json:"skipped,omitempty"`
	// SessionWordID is the stored answer's id, set once the backend has
	// accepted it.
	SessionWordID int64 `json:"session_word_id,omitempty"`
}

// Verdict is the authoritative scoring of one answer.
type Verdict struct {
	SessionWordID int64               `json:"session_word_id"`
	Correct       bool                `json:"correct"`
	Diagnostics   diagnosis.Diagnosis `json:"diagnostics"`
}

// Result summarizes a finished session. Mastery, Score, Accuracy and Speed
// are only filled by a backend.
type Result struct {
	SessionID      string   `json:"id"`
	EstimatedLevel int      `json:"estimated_level"`
	CorrectTotal   int      `json:"correct_total"`
	TotalWords     int      `json:"total_words"`
	Mastery        *int     `json:"mastery_1_10,omitempty"`
	Score          *float64 `json:"session_score,omitempty"`
	Accuracy       *float64 `json:"accuracy,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
	AudioKey       string   `json:"audio_key,omitempty"`
}
