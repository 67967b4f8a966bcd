package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget a student's mastery so training starts fresh",
	Long:  "Clears the student's per-level mastery. Sessions and answers are kept for the results view.",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		student := studentID()
		if !yes {
			return fmt.Errorf("this clears mastery for %q; rerun with --yes to confirm", student)
		}
		d, err := openLocal(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.Store.Mastery().Reset(cmd.Context(), student)
		if err != nil {
			return err
		}
		fmt.Printf("Nulstillede %d niveauer for %s.\n", n, student)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
