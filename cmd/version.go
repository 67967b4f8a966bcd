package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/api"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("laesemaskine", version)
		if cfg.Server.BaseURL == "" {
			return nil
		}
		remote, err := api.NewClient(cfg.Server.BaseURL).Health(cmd.Context())
		if err != nil {
			slog.Default().Warn("server unreachable", "url", cfg.Server.BaseURL, "error", err)
			return nil
		}
		fmt.Println("server", remote)
		return nil
	},
}
