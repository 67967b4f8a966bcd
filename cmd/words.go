package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Manage the word list",
}

var wordsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import or update words from a JSON word list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openLocal(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open word list: %w", err)
		}
		defer f.Close()

		n, err := d.Local.ImportWords(cmd.Context(), f)
		if err != nil {
			return err
		}
		total, err := d.Store.Words().Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Importerede %d ord (%d i alt).\n", n, total)
		return nil
	},
}

var wordsSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Show the words a session at a level would draw from",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetInt("level")
		count, _ := cmd.Flags().GetInt("count")
		band, _ := cmd.Flags().GetInt("band")
		if err := validateLevel(level); err != nil {
			return err
		}

		d, err := openDeps(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		words, err := d.Backend.FetchWords(cmd.Context(), level, count, band)
		if err != nil {
			return err
		}
		if len(words) == 0 {
			fmt.Println("Ingen ord fundet. Er ordlisten importeret?")
			return nil
		}
		fmt.Printf("%-6s  %-20s  %-6s  %s\n", "ID", "Ord", "Niveau", "Kategori")
		fmt.Println(rule(50))
		for _, w := range words {
			fmt.Printf("%-6d  %-20s  %-6d  %s\n", w.ID, truncate(w.Text, 20), w.Level, w.InterestCategory)
		}
		return nil
	},
}

func init() {
	wordsSampleCmd.Flags().Int("level", 1, "Level to sample around")
	wordsSampleCmd.Flags().Int("count", 10, "Number of words")
	wordsSampleCmd.Flags().Int("band", 1, "Accept words within this many levels")

	wordsCmd.AddCommand(wordsImportCmd)
	wordsCmd.AddCommand(wordsSampleCmd)
}
