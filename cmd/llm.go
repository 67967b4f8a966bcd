package cmd

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/laesemaskine/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		d, err := openLocal(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		events, err := d.Store.Events().Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-16s  %-24s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(rule(98))
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗ " + e.ErrorKind
			}
			fmt.Printf("%-5d  %-16s  %-16s  %-24s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				fmtTime(time.UnixMilli(e.CreatedAt)),
				truncate(e.Purpose, 16),
				truncate(e.Model, 24),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		d, err := openLocal(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		e, err := d.Store.Events().Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("event %d: %w", id, err)
		}

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Time:      %s\n", fmtTime(time.UnixMilli(e.CreatedAt)))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s (%s)\n", e.ErrorMessage, e.ErrorKind)
		}
		printBody("REQUEST", e.RequestBody)
		printBody("RESPONSE", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage by purpose",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openLocal(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		events, err := d.Store.Events().Recent(cmd.Context(), 0)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		type usage struct {
			calls, failed, in, out int
			latency                int64
		}
		byPurpose := map[string]*usage{}
		var purposes []string
		for _, e := range events {
			u, ok := byPurpose[e.Purpose]
			if !ok {
				u = &usage{}
				byPurpose[e.Purpose] = u
				purposes = append(purposes, e.Purpose)
			}
			u.calls++
			if !e.Success {
				u.failed++
			}
			u.in += e.InputTokens
			u.out += e.OutputTokens
			u.latency += e.LatencyMs
		}
		sort.Strings(purposes)

		fmt.Printf("%-16s  %6s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Failed", "Input", "Output", "Avg Ms")
		fmt.Println(rule(66))
		var total usage
		for _, p := range purposes {
			u := byPurpose[p]
			fmt.Printf("%-16s  %6d  %6d  %10d  %10d  %8d\n",
				truncate(p, 16), u.calls, u.failed, u.in, u.out, u.latency/int64(u.calls))
			total.calls += u.calls
			total.failed += u.failed
			total.in += u.in
			total.out += u.out
		}
		fmt.Println(rule(66))
		fmt.Printf("%-16s  %6d  %6d  %10d  %10d\n", "TOTAL", total.calls, total.failed, total.in, total.out)
		return nil
	},
}

var llmTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a short request to the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		llmCfg, ok := resolveLLMConfig()
		if !ok {
			return fmt.Errorf("no LLM provider configured; set llm.provider or a vendor API key")
		}
		d, err := openLocal(cmd, slog.Default())
		if err != nil {
			return err
		}
		defer d.Close()

		provider, err := llm.NewProvider(cmd.Context(), llmCfg, d.Store.Events(), slog.Default())
		if err != nil {
			return err
		}
		ctx := llm.WithPurpose(cmd.Context(), "cli-test")
		resp, err := provider.Generate(ctx, llm.Request{
			System:    "Du svarer kort på dansk.",
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Skriv et ord med tre bogstaver."}},
			Schema:    pingSchema,
			MaxTokens: 64,
		})
		if err != nil {
			return err
		}
		var out struct {
			Word string `json:"ord"`
		}
		if err := resp.Decode(&out); err != nil {
			return err
		}
		fmt.Printf("%s svarede %q (%d/%d tokens)\n", provider.ModelID(), out.Word, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		return nil
	},
}

var pingSchema = &llm.Schema{
	Name:        "cli-ping",
	Description: "A single Danish word",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ord": map[string]any{"type": "string"},
		},
		"required":             []any{"ord"},
		"additionalProperties": false,
	},
}

func printBody(title, body string) {
	fmt.Println()
	fmt.Println(rule(60))
	fmt.Println(title)
	fmt.Println(rule(60))
	if body == "" {
		fmt.Println("(not captured)")
		return
	}
	fmt.Println(body)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. diagnosis, dispute-review)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmTestCmd)
}
