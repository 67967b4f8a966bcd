package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/app"
	"github.com/abhisek/laesemaskine/internal/audio"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/observe"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Start a training session right away",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, true)
	},
}

func init() {
	trainCmd.Flags().Int("level", 0, "Start level 1-30 (0 resumes at the last estimated level)")
	trainCmd.Flags().String("feedback", "", "Feedback mode: per_word or after_test")
	trainCmd.Flags().Int("words", 0, "Words per session")
	rootCmd.Flags().Bool("all", false, "Show every student's answers in the results view")
	for _, c := range []*cobra.Command{rootCmd, trainCmd} {
		c.Flags().String("audio-file", "", "Play a 16-bit PCM WAV file as the session recording")
	}
}

// runApp builds dependencies and launches the TUI. Logs go to a file since
// the terminal belongs to the program.
func runApp(cmd *cobra.Command, train bool) error {
	logger, closeLog, err := openLogFile()
	if err != nil {
		return err
	}
	defer closeLog()

	d, err := openDeps(cmd, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	recorder, err := newRecorder(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	} else {
		defer shutdown(context.Background())
	}
	startPurger(ctx, d, logger)

	opts := app.Options{
		Context:         ctx,
		Backend:         d.Backend,
		Blobs:           d.Blobs,
		Recorder:        recorder,
		Logger:          logger,
		Metrics:         observe.DefaultMetrics(),
		StudentID:       studentID(),
		Lang:            cfg.Session.Lang,
		FeedbackMode:    cfg.Session.FeedbackMode,
		WordsPerSession: cfg.Session.WordsPerSession,
		StartTraining:   train,
	}
	if train {
		if err := applyTrainFlags(cmd, &opts); err != nil {
			return err
		}
	} else {
		opts.AllStudents, _ = cmd.Flags().GetBool("all")
	}

	logger.Info("starting", "version", version, "student", opts.StudentID, "remote", cfg.Server.BaseURL != "")
	return app.Run(opts)
}

// newRecorder returns the capture source named by --audio-file, or nil when
// the session runs without a recording.
func newRecorder(cmd *cobra.Command) (audio.Recorder, error) {
	path, _ := cmd.Flags().GetString("audio-file")
	if path == "" {
		return nil, nil
	}
	src, err := audio.OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// startPurger clears audio left over from earlier runs and keeps purging
// expired blobs until ctx ends.
func startPurger(ctx context.Context, d *deps, logger *slog.Logger) {
	purger := &blob.Purger{
		Store:    d.Blobs,
		Grace:    cfg.Blob.GracePeriod,
		Interval: cfg.Blob.PurgeInterval,
		Logger:   logger.With("component", "purger"),
	}
	switch n, err := purger.PurgeOnce(ctx); {
	case err != nil:
		logger.Warn("startup blob purge failed", "error", err)
	case n > 0:
		logger.Info("purged stale audio", "count", n)
	}
	go purger.Run(ctx)
}

func applyTrainFlags(cmd *cobra.Command, opts *app.Options) error {
	f := cmd.Flags()
	if level, _ := f.GetInt("level"); level != 0 {
		if err := validateLevel(level); err != nil {
			return err
		}
		opts.StartLevel = level
	}
	if mode, _ := f.GetString("feedback"); mode != "" {
		if mode != session.FeedbackPerWord && mode != session.FeedbackAfterTest {
			return fmt.Errorf("invalid --feedback %q; valid values: %s, %s", mode, session.FeedbackPerWord, session.FeedbackAfterTest)
		}
		opts.FeedbackMode = mode
	}
	if n, _ := f.GetInt("words"); n != 0 {
		if n < 0 {
			return fmt.Errorf("--words must be positive, got %d", n)
		}
		opts.WordsPerSession = n
	}
	return nil
}

// openLogFile opens laesemaskine.log in the data directory.
func openLogFile() (*slog.Logger, func(), error) {
	dir, err := store.DataDir()
	if err != nil {
		return nil, nil, err
	}
	path := filepath.Join(dir, "laesemaskine.log")
	if err := store.EnsureDir(path); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel.Slog()}))
	return logger, func() { f.Close() }, nil
}
