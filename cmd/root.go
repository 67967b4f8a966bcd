package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/config"
	"github.com/abhisek/laesemaskine/internal/store"
)

// cfg is loaded by the root command before any subcommand runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:           "laesemaskine",
	Short:         "Adaptive reading trainer",
	Long:          "Læsemaskine shows Danish words one at a time, listens to the student read them aloud and adapts the level to how it goes.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, false)
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Fejl:", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (overrides LAESEMASKINE_CONFIG)")
	pf.String("db", "", "Path to SQLite database file (overrides LAESEMASKINE_DB)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("server", "", "Base URL of a laesemaskine server; empty uses the local database")
	pf.String("student", "", "Student ID")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(wordsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(disputesCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file, lets flags override it and installs the
// default logger on stderr.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	optional := path == ""
	if optional {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	loaded, err := config.Load(path, optional)
	if err != nil {
		return err
	}
	cfg = loaded

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		lvl := config.LogLevel(v)
		if !lvl.IsValid() {
			return fmt.Errorf("invalid --log-level %q", v)
		}
		cfg.LogLevel = lvl
	}
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("student"); v != "" {
		cfg.Session.StudentID = v
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel.Slog(),
	})))
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file or LAESEMASKINE_DB, then the default data dir.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// studentID returns --student or the configured student.
func studentID() string {
	return cfg.Session.StudentID
}
