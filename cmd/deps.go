package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/api"
	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/diagnosis"
	"github.com/abhisek/laesemaskine/internal/llm"
	"github.com/abhisek/laesemaskine/internal/store"
)

// deps is what a command needs to reach the backend.
type deps struct {
	Backend backend.Backend
	Blobs   blob.Store
	// Local and Store are nil when talking to a remote server.
	Local *backend.Service
	Store *store.Store

	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// openDeps connects to the server at --server, or opens the local database
// when none is configured.
func openDeps(cmd *cobra.Command, logger *slog.Logger) (*deps, error) {
	if cfg.Server.BaseURL != "" {
		return openRemote(cmd.Context(), logger)
	}
	return openLocal(cmd, logger)
}

// openLocal opens the store and builds the in-process backend. Diagnosis
// uses the LLM when one is configured and falls back to rules otherwise.
func openLocal(cmd *cobra.Command, logger *slog.Logger) (*deps, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	d := &deps{Store: st}
	d.closers = append(d.closers, func() { st.Close() })

	var provider llm.Provider
	if llmCfg, ok := resolveLLMConfig(); ok {
		provider, err = llm.NewProvider(cmd.Context(), llmCfg, st.Events(), logger)
		if err != nil {
			logger.Warn("LLM provider unavailable, using rule-based diagnosis", "error", err)
			provider = nil
		}
	} else {
		logger.Debug("no LLM provider configured")
	}
	diag := diagnosis.NewService(provider)
	d.closers = append(d.closers, diag.Close)

	svc := backend.New(st, backend.WithDiagnosis(diag), backend.WithLogger(logger))
	d.Local = svc
	d.Backend = svc
	d.Blobs = svc.Blobs()
	return d, nil
}

// openRemote uses the HTTP API. Audio stays in memory on this side until a
// dispute uploads it.
func openRemote(ctx context.Context, logger *slog.Logger) (*deps, error) {
	client := api.NewClient(cfg.Server.BaseURL)
	if err := client.CheckCompatibility(ctx, version); err != nil {
		return nil, err
	}
	logger.Debug("connected to server", "url", cfg.Server.BaseURL)
	return &deps{Backend: client, Blobs: blob.NewMemoryStore()}, nil
}

// requireLocal fails for commands that only work on the local database.
func requireLocal(d *deps, what string) error {
	if d.Store == nil {
		return fmt.Errorf("%s needs a local database; drop --server", what)
	}
	return nil
}

// resolveLLMConfig returns the configured provider, or the first vendor key
// found in the environment.
func resolveLLMConfig() (llm.Config, bool) {
	if cfg.LLM.Configured() {
		return cfg.LLM, true
	}
	return llm.Discover(cfg.LLM)
}
