// internal/cli/evaluate.go
package foodbench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/eval"
	"github.com/mwiater/foodbench/internal/dataset"
	"github.com/mwiater/foodbench/internal/history"
	"github.com/mwiater/foodbench/internal/inference"
	"github.com/mwiater/foodbench/internal/logging"
	"github.com/mwiater/foodbench/internal/tui"
)

// evaluateOptions holds the flag values for the evaluate command.
type evaluateOptions struct {
	modelPath     string
	datasetDir    string
	limit         int
	workers       int
	warmupRuns    int
	recordsPath   string
	reportDir     string
	skipArtifacts bool
	skipHistory   bool
	useTUI        bool
}

var evaluateOpts evaluateOptions

// evaluateCmd classifies every labeled image in the dataset and renders the
// full evaluation report.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the classifier over a labeled dataset and report metrics",
	Long: `Evaluate classifies every labeled image under the dataset directory,
computes accuracy, per-class precision/recall/F1, the confusion matrix,
calibration, and latency percentiles, then archives the run.

Prediction records are appended as JSON lines so later analyze passes can
recompute statistics without re-running inference.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		modelPath := evaluateOpts.modelPath
		if modelPath == "" {
			modelPath = cfg.ModelPath
		}
		if modelPath == "" {
			return fmt.Errorf("no model configured: pass --model or set modelPath in %s", configFileHint())
		}

		datasetDir := evaluateOpts.datasetDir
		if datasetDir == "" {
			datasetDir = cfg.DatasetDir
		}
		if datasetDir == "" {
			return fmt.Errorf("no dataset configured: pass --dataset or set datasetDir in %s", configFileHint())
		}

		settings := cfg.EvalSettings()

		samples, err := dataset.Scan(datasetDir, settings.Classes)
		if err != nil {
			return fmt.Errorf("scanning dataset: %w", err)
		}
		limit := evaluateOpts.limit
		if limit == 0 {
			limit = cfg.SampleCap()
		}
		samples = dataset.Limit(samples, limit, cfg.ShuffleSeed())
		if len(samples) == 0 {
			return fmt.Errorf("dataset %s contains no labeled images for classes %v", datasetDir, settings.Classes)
		}

		classifier, err := inference.NewClassifier(modelPath, settings.Classes)
		if err != nil {
			return fmt.Errorf("loading model: %w", err)
		}
		defer classifier.Close()

		workers := evaluateOpts.workers
		if workers == 0 {
			workers = cfg.WorkerCount()
		}
		warmupRuns := evaluateOpts.warmupRuns
		if warmupRuns == 0 {
			warmupRuns = cfg.WarmupCount()
		}

		runner, err := inference.NewRunner(classifier, settings, workers, warmupRuns)
		if err != nil {
			return fmt.Errorf("starting runner: %w", err)
		}

		run := eval.RunInfo{
			ID:          uuid.NewString(),
			CreatedAt:   time.Now().UTC(),
			Model:       modelPath,
			Dataset:     datasetDir,
			ModelSizeMB: classifier.ModelSizeMB(),
		}

		logging.LogEvent("evaluate: model=%s dataset=%s samples=%d workers=%d", modelPath, datasetDir, len(samples), workers)

		var records []eval.PredictionRecord
		assemble := func(ctx context.Context, onProgress func(inference.ProgressEvent)) (*eval.EvaluationReport, error) {
			runner.OnProgress = onProgress
			started := time.Now()
			evaluated, err := runner.Evaluate(ctx, samples)
			if err != nil {
				return nil, err
			}
			records = evaluated
			run.DurationMillis = float64(time.Since(started)) / float64(time.Millisecond)
			return eval.AssembleReport(evaluated, settings, run)
		}

		var report *eval.EvaluationReport
		if evaluateOpts.useTUI {
			report, err = tui.StartEvaluation(cmd.Context(), tui.RunSetup{
				Model:   modelPath,
				Dataset: datasetDir,
				Profile: cfg.Profile,
				Total:   len(samples),
			}, assemble)
		} else {
			report, err = assemble(cmd.Context(), consoleProgress(cmd, len(samples)))
		}
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		colorize := shouldColorize(out) && !ColorDisabled()
		printReportTables(out, report, colorize)
		cmd.Println()

		recordsPath := evaluateOpts.recordsPath
		if recordsPath == "" {
			recordsPath = cfg.RecordsFilePath()
		}
		if err := eval.WriteRecords(recordsPath, records); err != nil {
			return fmt.Errorf("writing prediction records: %w", err)
		}
		cmd.Printf("Prediction records appended to %s\n", recordsPath)

		if !evaluateOpts.skipArtifacts {
			reportDir := evaluateOpts.reportDir
			if reportDir == "" {
				reportDir = cfg.ReportDirPath()
			}
			written, err := writeReportArtifacts(reportDir, reportBaseName(report.Run), report)
			if err != nil {
				return fmt.Errorf("writing report artifacts: %w", err)
			}
			for _, path := range written {
				cmd.Printf("Report written to %s\n", path)
			}
		}

		if !evaluateOpts.skipHistory {
			store, err := history.Open(cfg.HistoryDBPath())
			if err != nil {
				return fmt.Errorf("opening history store: %w", err)
			}
			defer store.Close()
			saved, err := store.Save(cmd.Context(), report)
			if err != nil {
				return fmt.Errorf("archiving run: %w", err)
			}
			cmd.Printf("Run %s archived to %s\n", shortID(saved.ID), cfg.HistoryDBPath())
		}

		logging.LogRun("evaluate", modelPath, datasetDir, map[string]any{
			"runId":    report.Run.ID,
			"records":  report.Run.RecordCount,
			"accuracy": report.Accuracy,
			"macroF1":  report.MacroF1,
			"ece":      report.ECE,
			"p95":      report.LatencyPercentiles.P95,
		})
		return nil
	},
}

// consoleProgress prints classification progress without the TUI, at most
// every 25 samples plus the final one.
func consoleProgress(cmd *cobra.Command, total int) func(inference.ProgressEvent) {
	return func(event inference.ProgressEvent) {
		if event.Done%25 != 0 && event.Done != total {
			return
		}
		cmd.Printf("Classified %d/%d (%d correct)\n", event.Done, event.Total, event.Correct)
	}
}

// reportBaseName derives the artifact file stem from the run identity.
func reportBaseName(run eval.RunInfo) string {
	stamp := run.CreatedAt.UTC().Format("20060102-150405")
	return fmt.Sprintf("run-%s-%s", stamp, shortID(run.ID))
}

// writeReportArtifacts renders the report as JSON, Markdown, and HTML under
// dir and returns the written paths.
func writeReportArtifacts(dir, base string, report *eval.EvaluationReport) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	written := make([]string, 0, 3)

	jsonPath := filepath.Join(dir, base+".json")
	if err := eval.WriteJSON(jsonPath, report); err != nil {
		return nil, err
	}
	written = append(written, jsonPath)

	markdownPath := filepath.Join(dir, base+".md")
	if err := eval.WriteMarkdown(markdownPath, report); err != nil {
		return nil, err
	}
	written = append(written, markdownPath)

	htmlPath := filepath.Join(dir, base+".html")
	if err := eval.WriteHTML(htmlPath, report); err != nil {
		return nil, err
	}
	written = append(written, htmlPath)

	return written, nil
}

func configFileHint() string {
	if cfg := GetConfig(); cfg != nil && cfg.ConfigPath != "" {
		return cfg.ConfigPath
	}
	return "the config file"
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVarP(&evaluateOpts.modelPath, "model", "m", "", "Path to the ONNX model (defaults to configured modelPath)")
	evaluateCmd.Flags().StringVarP(&evaluateOpts.datasetDir, "dataset", "d", "", "Dataset directory with one subdirectory per class (defaults to configured datasetDir)")
	evaluateCmd.Flags().IntVar(&evaluateOpts.limit, "limit", 0, "Maximum number of images to evaluate, 0 uses the configured cap")
	evaluateCmd.Flags().IntVar(&evaluateOpts.workers, "workers", 0, "Number of concurrent inference workers, 0 uses the configured count")
	evaluateCmd.Flags().IntVar(&evaluateOpts.warmupRuns, "warmup", 0, "Warmup inference passes before timing, 0 uses the configured count")
	evaluateCmd.Flags().StringVar(&evaluateOpts.recordsPath, "records", "", "JSONL file to append prediction records to (defaults to configured recordsPath)")
	evaluateCmd.Flags().StringVar(&evaluateOpts.reportDir, "report-dir", "", "Directory for report artifacts (defaults to configured reportDir)")
	evaluateCmd.Flags().BoolVar(&evaluateOpts.skipArtifacts, "no-artifacts", false, "Skip writing JSON/Markdown/HTML report files")
	evaluateCmd.Flags().BoolVar(&evaluateOpts.skipHistory, "no-history", false, "Skip archiving the run in the history database")
	evaluateCmd.Flags().BoolVar(&evaluateOpts.useTUI, "tui", false, "Show live progress in a terminal UI")
}
