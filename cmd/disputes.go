package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/store"
)

var disputesCmd = &cobra.Command{
	Use:     "disputes",
	Aliases: []string{"indsigelser"},
	Short:   "Review disputed answers",
}

var disputesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List disputes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		if status != "" && !store.ValidStatus(status) {
			return fmt.Errorf("invalid --status %q; valid values: pending, approved, rejected", status)
		}

		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		list, err := d.Backend.Disputes(cmd.Context(), store.DisputeFilter{Status: status, Limit: limit})
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("Ingen indsigelser.")
			return nil
		}
		fmt.Printf("%-5s  %-16s  %-10s  %-14s  %-14s  %-9s  %-5s  %s\n",
			"ID", "Oprettet", "Elev", "Ord", "Hørt", "Status", "Lyd", "AI")
		fmt.Println(rule(90))
		for _, dp := range list {
			audio := "-"
			if dp.HasAudio {
				audio = "ja"
			}
			ai := dp.AIVerdict
			if ai == "" {
				ai = "-"
			}
			fmt.Printf("%-5d  %-16s  %-10s  %-14s  %-14s  %-9s  %-5s  %s\n",
				dp.ID,
				fmtTime(time.UnixMilli(dp.CreatedAt)),
				truncate(dp.StudentID, 10),
				truncate(dp.Expected, 14),
				truncate(dp.Recognized, 14),
				dp.Status,
				audio,
				ai,
			)
		}
		return nil
	},
}

var disputesReviewCmd = &cobra.Command{
	Use:   "review <id> <pending|approved|rejected>",
	Short: "Set a dispute's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if !store.ValidStatus(args[1]) {
			return fmt.Errorf("invalid status %q; valid values: pending, approved, rejected", args[1])
		}
		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Backend.ReviewDispute(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		fmt.Printf("Indsigelse %d: %s\n", id, args[1])
		return nil
	},
}

var disputesAICmd = &cobra.Command{
	Use:   "ai <id>",
	Short: "Approve a dispute and ask the AI to review it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		errorType, _ := cmd.Flags().GetString("error-type")

		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		queued, err := d.Backend.SendToAI(cmd.Context(), id, errorType)
		if err != nil {
			return err
		}
		if !queued {
			fmt.Printf("Indsigelse %d godkendt. AI-vurdering er ikke tilgængelig.\n", id)
			return nil
		}
		fmt.Printf("Indsigelse %d godkendt og sendt til AI-vurdering.\n", id)
		return nil
	},
}

var disputesAudioCmd = &cobra.Command{
	Use:   "audio <id>",
	Short: "Save a dispute's audio clip to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		del, _ := cmd.Flags().GetBool("delete")

		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		if del {
			if err := d.Backend.DeleteDisputeAudio(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Lyd slettet for indsigelse %d.\n", id)
			return nil
		}

		clip, err := d.Backend.DisputeAudio(cmd.Context(), id)
		if err != nil {
			return err
		}
		if clip == nil {
			return fmt.Errorf("dispute %d has no audio", id)
		}
		if out == "" {
			out = fmt.Sprintf("indsigelse_%d%s", id, audioExt(clip.MIME))
		}
		if err := os.WriteFile(out, clip.Data, 0o644); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		fmt.Printf("Gemte %d bytes i %s\n", len(clip.Data), out)
		return nil
	},
}

func audioExt(mime string) string {
	switch mime {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	}
	return ".bin"
}

func init() {
	disputesListCmd.Flags().String("status", "", "Only disputes with this status")
	disputesListCmd.Flags().IntP("limit", "n", 50, "Number of disputes to show")
	disputesAICmd.Flags().String("error-type", "", "Override the error type before review")
	disputesAudioCmd.Flags().StringP("output", "o", "", "Output file (default indsigelse_<id>.<ext>)")
	disputesAudioCmd.Flags().Bool("delete", false, "Delete the clip instead of saving it")

	disputesCmd.AddCommand(disputesListCmd)
	disputesCmd.AddCommand(disputesReviewCmd)
	disputesCmd.AddCommand(disputesAICmd)
	disputesCmd.AddCommand(disputesAudioCmd)
}
