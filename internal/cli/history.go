// internal/cli/history.go
package foodbench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/internal/history"
)

// historyCmd represents the 'history' command group for stored runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Group commands for inspecting stored evaluation runs",
	Long:  `The 'history' command groups subcommands that list, show, and prune evaluation runs archived in the history database.`,
}

// historyListOptions holds the flag values for 'history list'.
type historyListOptions struct {
	limit int
}

var historyListOpts historyListOptions

// historyListCmd lists archived runs newest first.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived evaluation runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		store, err := history.Open(cfg.HistoryDBPath())
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), historyListOpts.limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			cmd.Println("No archived runs.")
			return nil
		}

		cmd.Println(renderHistoryTable(runs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyListCmd.Flags().IntVarP(&historyListOpts.limit, "limit", "n", 20, "Maximum number of runs to list, 0 lists all")
}
