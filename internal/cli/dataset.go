// internal/cli/dataset.go
package foodbench

import (
	"github.com/spf13/cobra"
)

// datasetCmd represents the 'dataset' command group.
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Group commands for inspecting the evaluation dataset",
	Long:  `The 'dataset' command groups subcommands that inspect the labeled image directory used for evaluation runs.`,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
}
