// Package config loads the YAML configuration and applies environment
// overrides.
package config

import (
	"log/slog"
	"time"

	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/llm"
	"github.com/abhisek/laesemaskine/internal/session"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l to a slog level; unknown values mean info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration.
type Config struct {
	LogLevel LogLevel      `yaml:"log_level"`
	DBPath   string        `yaml:"db_path"`
	Server   ServerConfig  `yaml:"server"`
	Session  SessionConfig `yaml:"session"`
	Blob     BlobConfig    `yaml:"blob"`
	Metrics  MetricsConfig `yaml:"metrics"`
	LLM      llm.Config    `yaml:"llm"`
}

// ServerConfig covers both sides of the HTTP API: Addr is where serve
// listens, BaseURL is the server the TUI talks to. An empty BaseURL means
// the TUI uses the local database directly.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"`
}

type SessionConfig struct {
	StudentID       string `yaml:"student_id"`
	StartLevel      int    `yaml:"start_level"`
	Lang            string `yaml:"lang"`
	FeedbackMode    string `yaml:"feedback_mode"`
	WordsPerSession int    `yaml:"words_per_session"`
}

// BlobConfig controls the session audio buffer.
type BlobConfig struct {
	GracePeriod   time.Duration `yaml:"grace_period"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

// MetricsConfig sets where the Prometheus endpoint listens. Empty disables
// the standalone listener; serve always exposes /metrics.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Server:   ServerConfig{Addr: "127.0.0.1:8765"},
		Session: SessionConfig{
			StudentID:       "elev",
			StartLevel:      1,
			Lang:            "da-DK",
			FeedbackMode:    session.FeedbackPerWord,
			WordsPerSession: session.WordsPerSession,
		},
		Blob: BlobConfig{
			GracePeriod:   blob.DefaultGrace,
			PurgeInterval: time.Minute,
		},
		LLM: llm.DefaultConfig(),
	}
}
