// internal/cli/predict.go
package foodbench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/internal/inference"
	"github.com/mwiater/foodbench/internal/logging"
)

// predictOptions holds the flag values for the predict command.
type predictOptions struct {
	modelPath string
}

var predictOpts predictOptions

// predictCmd classifies a single image and prints the probability table.
var predictCmd = &cobra.Command{
	Use:   "predict IMAGE",
	Short: "Classify a single image and print per-class probabilities",
	Long: `Predict runs one inference pass over the given image and prints the
probability assigned to each class. Predictions whose best probability
falls below the configured threshold are labeled unknown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		modelPath := predictOpts.modelPath
		if modelPath == "" {
			modelPath = cfg.ModelPath
		}
		if modelPath == "" {
			return fmt.Errorf("no model configured: pass --model or set modelPath in %s", configFileHint())
		}

		settings := cfg.EvalSettings()

		classifier, err := inference.NewClassifier(modelPath, settings.Classes)
		if err != nil {
			return fmt.Errorf("loading model: %w", err)
		}
		defer classifier.Close()

		imagePath := args[0]
		pred, err := inference.Predict(classifier, imagePath, settings)
		if err != nil {
			return fmt.Errorf("classifying %s: %w", imagePath, err)
		}

		out := cmd.OutOrStdout()
		colorize := shouldColorize(out) && !ColorDisabled()
		printPrediction(out, imagePath, pred, settings.Threshold, colorize)

		logging.LogEvent("predict: image=%s label=%s confidence=%.4f latencyMs=%.1f",
			imagePath, pred.Label, pred.Confidence, pred.LatencyMillis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVarP(&predictOpts.modelPath, "model", "m", "", "Path to the ONNX model (defaults to configured modelPath)")
}
