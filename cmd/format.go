package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/laesemaskine/internal/difficulty"
)

const timeLayout = "2006-01-02 15:04"

func validateLevel(level int) error {
	if level < difficulty.MinLevel || level > difficulty.MaxLevel {
		return fmt.Errorf("level %d is outside %d..%d", level, difficulty.MinLevel, difficulty.MaxLevel)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

func rule(n int) string { return strings.Repeat("─", n) }

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func fmtOptInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
