// internal/cli/history_prune.go
package foodbench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/internal/history"
)

// historyPruneOptions holds the flag values for 'history prune'.
type historyPruneOptions struct {
	keep int
}

var historyPruneOpts historyPruneOptions

// historyPruneCmd deletes archived runs beyond the newest N.
var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archived runs, keeping only the newest N",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		store, err := history.Open(cfg.HistoryDBPath())
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()

		removed, err := store.Prune(cmd.Context(), historyPruneOpts.keep)
		if err != nil {
			return fmt.Errorf("pruning runs: %w", err)
		}

		cmd.Printf("Pruned %d run(s), kept the newest %d.\n", removed, historyPruneOpts.keep)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyPruneCmd)
	historyPruneCmd.Flags().IntVar(&historyPruneOpts.keep, "keep", 10, "Number of most recent runs to keep")
}
