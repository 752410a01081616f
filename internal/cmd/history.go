package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/autoprompter/internal/config"
	"github.com/steveyegge/autoprompter/internal/history"
	"github.com/steveyegge/autoprompter/internal/style"
)

var (
	historyLimit int
	historyJSON  bool
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: GroupDiag,
	Short:   "List recent runs",
	Long: `List recent runs recorded in the history database.

With --run, show the per-prompt outcomes of one run.

Examples:
  ap history
  ap history -n 50
  ap history --run 4f0c2a9e-...`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the items of one run")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &usageError{err: err}
	}
	if _, err := os.Stat(cfg.HistoryPath); os.IsNotExist(err) {
		fmt.Println(style.Dim.Render("No runs recorded yet."))
		return nil
	}

	db, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if historyRun != "" {
		return showHistoryItems(cmd, db, historyRun)
	}

	runs, err := db.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println(style.Dim.Render("No runs recorded yet."))
		return nil
	}

	tbl := style.NewTable(
		style.Column{Name: "RUN", Width: 8},
		style.Column{Name: "STARTED", Width: 16},
		style.Column{Name: "CSV", Width: 28},
		style.Column{Name: "SENT", Width: 5, Align: style.AlignRight},
		style.Column{Name: "FAILED", Width: 6, Align: style.AlignRight},
		style.Column{Name: "TOTAL", Width: 5, Align: style.AlignRight},
		style.Column{Name: "TOOK", Width: 8, Align: style.AlignRight},
		style.Column{Name: "STATUS", Width: 18, Color: statusStyle},
	)
	for _, r := range runs {
		status := r.Status
		if r.DryRun {
			status += " (dry)"
		}
		took := "-"
		if !r.FinishedAt.IsZero() {
			took = formatDuration(r.FinishedAt.Sub(r.StartedAt))
		}
		tbl.AddRow(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.CSVPath,
			fmt.Sprint(r.Sent),
			fmt.Sprint(r.Failed),
			fmt.Sprint(r.Total),
			took,
			status,
		)
	}
	fmt.Print(tbl.Render())
	return nil
}

func showHistoryItems(cmd *cobra.Command, db *history.DB, runID string) error {
	items, err := db.Items(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if historyJSON {
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Println(style.Dim.Render("No items recorded for run " + runID))
		return nil
	}

	tbl := style.NewTable(
		style.Column{Name: "#", Width: 4, Align: style.AlignRight},
		style.Column{Name: "OUTCOME", Width: 10, Color: statusStyle},
		style.Column{Name: "TRIES", Width: 5, Align: style.AlignRight},
		style.Column{Name: "PROMPT", Width: 40},
		style.Column{Name: "ERROR", Width: 30},
	)
	for _, it := range items {
		tbl.AddRow(fmt.Sprint(it.Index), it.Outcome, fmt.Sprint(it.Attempts), it.Prompt, it.Error)
	}
	fmt.Print(tbl.Render())
	return nil
}

// statusStyle colors run statuses and item outcomes by their first word.
func statusStyle(s string) string {
	word, _, _ := strings.Cut(s, " ")
	switch word {
	case history.StatusCompleted, history.OutcomeSent:
		return style.Success.Render(s)
	case history.StatusAllFailed, history.StatusError, history.OutcomeFailed:
		return style.Error.Render(s)
	case history.StatusInterrupted, history.StatusRunning:
		return style.Warning.Render(s)
	}
	return style.Dim.Render(s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatDuration renders a run length for display.
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
