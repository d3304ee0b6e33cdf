// internal/cli/history_show.go
package foodbench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/internal/history"
)

// historyShowCmd prints the full report for one archived run.
var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show the full report for one archived run",
	Long: `Show looks up an archived run by id prefix and re-renders its stored
report. Any unique leading fragment of the run id works.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		store, err := history.Open(cfg.HistoryDBPath())
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()

		run, err := store.GetByPrefix(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("looking up run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("no run found with id prefix %q", args[0])
		}

		report, err := run.Report()
		if err != nil {
			return fmt.Errorf("decoding stored report: %w", err)
		}

		out := cmd.OutOrStdout()
		cmd.Printf("Run %s  created %s\n\n", run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		printReportTables(out, report, shouldColorize(out) && !ColorDisabled())
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
}
