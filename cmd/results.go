package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/querytable"
	"github.com/abhisek/laesemaskine/internal/screens/results"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List answers with column filters and multi-column sorting",
	Long: `List recorded answers as a table.

Filters use the same expressions as the results view, one per column:
  --filter ord='h*'  --filter niveau='>=3 <6'  --filter korrekt=nej
Sort keys apply in the order given:
  --sort niveau --sort tid:desc`,
	RunE: runResults,
}

func init() {
	f := resultsCmd.Flags()
	f.Bool("all", false, "Include every student")
	f.StringArray("filter", nil, "Column filter as column=expression (repeatable)")
	f.StringArray("sort", nil, "Sort key as column[:asc|:desc] (repeatable)")
	f.IntP("limit", "n", 0, "Fetch at most this many answers (0 for all)")
}

func runResults(cmd *cobra.Command, args []string) error {
	table := results.AnswerTable()

	rawFilters, _ := cmd.Flags().GetStringArray("filter")
	filters, err := parseFilterFlags(table, rawFilters)
	if err != nil {
		return err
	}
	rawSort, _ := cmd.Flags().GetStringArray("sort")
	state, err := parseSortFlags(table, rawSort)
	if err != nil {
		return err
	}
	if len(state) == 0 {
		state = querytable.SortState{{Column: results.ColTime, Direction: querytable.Desc}}
	}

	d, err := openDeps(cmd, slog.Default())
	if err != nil {
		return err
	}
	defer d.Close()

	f := backend.AnswerFilter{StudentID: studentID()}
	if all, _ := cmd.Flags().GetBool("all"); all {
		f.StudentID = ""
	}
	f.Limit, _ = cmd.Flags().GetInt("limit")

	items, err := d.Backend.Answers(cmd.Context(), f)
	if err != nil {
		return err
	}
	rows := table.Apply(items, filters, state)
	printTable(table, rows)
	fmt.Printf("\n%d af %d svar\n", len(rows), len(items))
	return nil
}

// parseFilterFlags turns column=expression pairs into table filters.
func parseFilterFlags(table *querytable.Table[backend.AnswerItem], raw []string) (querytable.Filters, error) {
	filters := querytable.Filters{}
	for _, r := range raw {
		col, expr, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --filter %q; want column=expression", r)
		}
		col = strings.TrimSpace(col)
		if _, known := table.Column(col); !known {
			return nil, fmt.Errorf("unknown column %q in --filter", col)
		}
		filters[col] = expr
	}
	return filters, nil
}

// parseSortFlags turns column[:dir] keys into a sort state. A column named
// twice keeps its first position and takes the last direction.
func parseSortFlags(table *querytable.Table[backend.AnswerItem], raw []string) (querytable.SortState, error) {
	var state querytable.SortState
	for _, r := range raw {
		col, dir, _ := strings.Cut(r, ":")
		if _, known := table.Column(col); !known {
			return nil, fmt.Errorf("unknown column %q in --sort", col)
		}
		key := querytable.SortKey{Column: col}
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			key.Direction = querytable.Desc
		default:
			return nil, fmt.Errorf("invalid sort direction %q; want asc or desc", dir)
		}
		if i := state.Index(col); i >= 0 {
			state[i] = key
			continue
		}
		state = append(state, key)
	}
	return state, nil
}

func printTable(table *querytable.Table[backend.AnswerItem], rows []backend.AnswerItem) {
	var b strings.Builder
	width := 0
	for _, c := range table.Columns {
		w := results.ColumnWidth(c.Key)
		fmt.Fprintf(&b, "%-*s  ", w, truncate(c.Title, w))
		width += w + 2
	}
	fmt.Println(strings.TrimRight(b.String(), " "))
	fmt.Println(rule(width))
	for _, row := range rows {
		b.Reset()
		for _, c := range table.Columns {
			w := results.ColumnWidth(c.Key)
			fmt.Fprintf(&b, "%-*s  ", w, truncate(c.Format(row), w))
		}
		fmt.Println(strings.TrimRight(b.String(), " "))
	}
}
