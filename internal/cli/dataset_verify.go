// internal/cli/dataset_verify.go
package foodbench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/internal/dataset"
)

// datasetVerifyOptions holds the flag values for 'dataset verify'.
type datasetVerifyOptions struct {
	datasetDir string
}

var datasetVerifyOpts datasetVerifyOptions

// datasetVerifyCmd checks the dataset layout against the configured classes.
var datasetVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the dataset directory against the configured classes",
	Long: `Verify walks the dataset directory and reports, per configured class,
how many images are present and how many files could not be decoded.
It fails when a class directory is missing entirely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		datasetDir := datasetVerifyOpts.datasetDir
		if datasetDir == "" {
			datasetDir = cfg.DatasetDir
		}
		if datasetDir == "" {
			return fmt.Errorf("no dataset configured: pass --dataset or set datasetDir in %s", configFileHint())
		}

		settings := cfg.EvalSettings()
		counts, err := dataset.Verify(datasetDir, settings.Classes)
		if err != nil {
			return fmt.Errorf("verifying dataset: %w", err)
		}

		out := cmd.OutOrStdout()
		colorize := shouldColorize(out) && !ColorDisabled()
		cmd.Printf("Dataset: %s\n\n", datasetDir)
		cmd.Println(renderDatasetTable(counts, colorize))

		missing := 0
		total := 0
		for _, count := range counts {
			if count.Missing {
				missing++
			}
			total += count.Images
		}
		if missing > 0 {
			return fmt.Errorf("%d of %d class directories are missing under %s", missing, len(counts), datasetDir)
		}

		cmd.Printf("\n%d images across %d classes.\n", total, len(counts))
		return nil
	},
}

func init() {
	datasetCmd.AddCommand(datasetVerifyCmd)
	datasetVerifyCmd.Flags().StringVarP(&datasetVerifyOpts.datasetDir, "dataset", "d", "", "Dataset directory to verify (defaults to configured datasetDir)")
}
