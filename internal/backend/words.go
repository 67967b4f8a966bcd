package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

// FetchWords samples count words around level.
func (s *Service) FetchWords(ctx context.Context, level, count, band int) ([]session.Word, error) {
	if count <= 0 {
		count = session.WordsPerSession
	}
	rows, err := s.store.Words().Sample(ctx, level, count, band)
	if err != nil {
		return nil, err
	}
	words := make([]session.Word, len(rows))
	for i, w := range rows {
		words[i] = toSessionWord(w)
	}
	return words, nil
}

func toSessionWord(w store.Word) session.Word {
	return session.Word{
		ID:               w.ID,
		Text:             w.Text,
		Level:            w.Level,
		Phase:            w.Phase,
		SpellingPattern:  w.SpellingPattern,
		DyslexiaRisk:     w.DyslexiaRisk,
		DyslexiaType:     w.DyslexiaType,
		InterestCategory: w.InterestCategory,
	}
}

// wordFile is the word list format exported from the spreadsheet.
type wordFile struct {
	Words []wordEntry `json:"words"`
}

type wordEntry struct {
	ID               int64     `json:"id"`
	Text             string    `json:"ord"`
	Level            *flexText `json:"niveau"`
	Phase            flexText  `json:"fase"`
	SpellingPattern  flexText  `json:"stavemoenster"`
	DyslexiaRisk     flexText  `json:"ordblind_risiko"`
	DyslexiaType     flexText  `json:"ordblind_type"`
	InterestCategory flexText  `json:"interessekategori"`
}

// flexText accepts a JSON string, number, bool or null.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexText(strings.TrimSpace(s))
	default:
		*f = flexText(data)
	}
	return nil
}

// level parses "12", "12.0" or "Niveau 12".
func (f *flexText) level() int {
	if f == nil {
		return 0
	}
	s := string(*f)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return int(n)
	}
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[start:end])
	return n
}

// ImportWords reads a word list and upserts it. Entries without text are
// skipped; a missing id takes the entry's 1-based position.
func (s *Service) ImportWords(ctx context.Context, r io.Reader) (int, error) {
	var file wordFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return 0, fmt.Errorf("%w: decode word list: %v", ErrInvalidInput, err)
	}
	words := make([]store.Word, 0, len(file.Words))
	for i, e := range file.Words {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		id := e.ID
		if id <= 0 {
			id = int64(i + 1)
		}
		words = append(words, store.Word{
			ID:               id,
			Text:             text,
			Level:            e.Level.level(),
			Phase:            string(e.Phase),
			SpellingPattern:  string(e.SpellingPattern),
			DyslexiaRisk:     string(e.DyslexiaRisk),
			DyslexiaType:     string(e.DyslexiaType),
			InterestCategory: string(e.InterestCategory),
		})
	}
	n, err := s.store.Words().Import(ctx, words)
	if err != nil {
		return 0, err
	}
	s.logger.Info("words imported", "count", n, "skipped", len(file.Words)-n)
	return n, nil
}
