package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/laesemaskine/internal/difficulty"
	"github.com/abhisek/laesemaskine/internal/llm"
	"github.com/abhisek/laesemaskine/internal/session"
)

// DefaultPath resolves the config file: LAESEMASKINE_CONFIG, then
// $XDG_CONFIG_HOME/laesemaskine/config.yaml, then ~/.config/laesemaskine.
func DefaultPath() (string, error) {
	if p := os.Getenv(llm.EnvPrefix + "CONFIG"); p != "" {
		return p, nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "laesemaskine", "config.yaml"), nil
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error when
// optional is true.
func Load(path string, optional bool) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			cfg.ApplyEnv()
			return cfg, Validate(cfg)
		}
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults, applies environment
// overrides and validates the result. Unknown keys are errors.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyEnv()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from LAESEMASKINE_* variables. Values that fail to
// parse are ignored.
func (c *Config) ApplyEnv() {
	str := func(dst *string, name string) {
		if v := os.Getenv(llm.EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(dst *int, name string) {
		if v, err := strconv.Atoi(os.Getenv(llm.EnvPrefix + name)); err == nil {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, name string) {
		if v, err := time.ParseDuration(os.Getenv(llm.EnvPrefix + name)); err == nil {
			*dst = v
		}
	}

	if v := os.Getenv(llm.EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = LogLevel(v)
	}
	str(&c.DBPath, "DB")
	str(&c.Server.Addr, "SERVER_ADDR")
	str(&c.Server.BaseURL, "SERVER_URL")
	str(&c.Session.StudentID, "STUDENT")
	num(&c.Session.StartLevel, "START_LEVEL")
	str(&c.Session.Lang, "LANG")
	str(&c.Session.FeedbackMode, "FEEDBACK_MODE")
	num(&c.Session.WordsPerSession, "WORDS_PER_SESSION")
	dur(&c.Blob.GracePeriod, "BLOB_GRACE")
	str(&c.Metrics.Addr, "METRICS_ADDR")
	c.LLM.ApplyEnv()
}

// Validate checks that cfg is coherent and returns every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	s := cfg.Session
	if s.StartLevel < difficulty.MinLevel || s.StartLevel > difficulty.MaxLevel {
		errs = append(errs, fmt.Errorf("session.start_level %d is outside %d..%d", s.StartLevel, difficulty.MinLevel, difficulty.MaxLevel))
	}
	if s.FeedbackMode != session.FeedbackPerWord && s.FeedbackMode != session.FeedbackAfterTest {
		errs = append(errs, fmt.Errorf("session.feedback_mode %q is invalid; valid values: %s, %s", s.FeedbackMode, session.FeedbackPerWord, session.FeedbackAfterTest))
	}
	if s.WordsPerSession <= 0 {
		errs = append(errs, fmt.Errorf("session.words_per_session must be positive, got %d", s.WordsPerSession))
	}
	if s.StudentID == "" {
		errs = append(errs, errors.New("session.student_id must not be empty"))
	}
	if cfg.Blob.GracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("blob.grace_period must be positive, got %s", cfg.Blob.GracePeriod))
	}
	if cfg.Blob.PurgeInterval <= 0 {
		errs = append(errs, fmt.Errorf("blob.purge_interval must be positive, got %s", cfg.Blob.PurgeInterval))
	}
	switch cfg.LLM.Provider {
	case "", llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is unknown", cfg.LLM.Provider))
	}
	return errors.Join(errs...)
}
