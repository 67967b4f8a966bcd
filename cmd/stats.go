package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/querytable"
	"github.com/abhisek/laesemaskine/internal/screens/results"
	"github.com/abhisek/laesemaskine/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reading statistics",
	Long: `Without flags, lists every student's latest level and mastery.
With --student, shows where that student struggles, grouped by interest
category, spelling pattern, dyslexia type and level. Add --group and --key
to list the answers behind one row.`,
	RunE: runStats,
}

func init() {
	f := statsCmd.Flags()
	f.String("group", "", "Drill into a group: interessekategori, stavemoenster, ordblind_type, niveau")
	f.String("key", "", "Group value to drill into")
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := openDeps(cmd, slog.Default())
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	group, _ := cmd.Flags().GetString("group")
	key, _ := cmd.Flags().GetString("key")
	switch {
	case group != "":
		if key == "" {
			return fmt.Errorf("--group needs --key")
		}
		items, err := d.Backend.Drilldown(ctx, studentID(), group, key)
		if err != nil {
			return err
		}
		table := results.AnswerTable()
		rows := table.Apply(items, nil, querytable.SortState{{Column: results.ColTime, Direction: querytable.Desc}})
		printTable(table, rows)
		return nil
	case cmd.Flags().Changed("student"):
		b, err := d.Backend.Difficulty(ctx, studentID())
		if err != nil {
			return err
		}
		printBreakdown(b)
		return nil
	}

	overview, err := d.Backend.Overview(ctx)
	if err != nil {
		return err
	}
	printOverview(overview)
	return nil
}

func printOverview(rows []backend.StudentOverview) {
	if len(rows) == 0 {
		fmt.Println("Ingen afsluttede træninger endnu.")
		return
	}
	fmt.Printf("%-16s  %6s  %8s  %s\n", "Elev", "Niveau", "Mestring", "Seneste")
	fmt.Println(rule(52))
	for _, r := range rows {
		fmt.Printf("%-16s  %6d  %8s  %s\n",
			truncate(r.StudentID, 16), r.LastLevel, fmtOptInt(r.LastMastery), fmtTime(r.LastSessionAt))
	}
}

func printBreakdown(b *store.Breakdown) {
	sections := []struct {
		title string
		rows  []store.BreakdownRow
	}{
		{"Interessekategori", b.ByInterest},
		{"Stavemønster", b.BySpelling},
		{"Ordblind-type", b.ByDyslexiaType},
		{"Niveau", b.ByLevel},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(s.title)
		fmt.Println(rule(48))
		if len(s.rows) == 0 {
			fmt.Println("(ingen data)")
			continue
		}
		fmt.Printf("%-22s  %5s  %5s  %7s\n", "Værdi", "Svar", "Fejl", "Fejl %")
		for _, r := range s.rows {
			fmt.Printf("%-22s  %5d  %5d  %6.0f%%\n", truncate(r.Key, 22), r.Total, r.Wrong, r.WrongRate*100)
		}
	}
}
