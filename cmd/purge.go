package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/blob"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete buffered session audio older than the grace period",
	RunE: func(cmd *cobra.Command, args []string) error {
		if g, _ := cmd.Flags().GetDuration("grace"); g > 0 {
			cfg.Blob.GracePeriod = g
		}
		d, err := openLocal(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		p := &blob.Purger{Store: d.Blobs, Grace: cfg.Blob.GracePeriod}
		n, err := p.PurgeOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Slettede %d lydoptagelser ældre end %s.\n", n, cfg.Blob.GracePeriod)
		return nil
	},
}

func init() {
	purgeCmd.Flags().Duration("grace", 0, "Keep clips younger than this (overrides blob.grace_period)")
}
