// internal/cli/watch.go
package foodbench

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/eval"
	"github.com/mwiater/foodbench/internal/appconfig"
	"github.com/mwiater/foodbench/internal/dataset"
	"github.com/mwiater/foodbench/internal/history"
	"github.com/mwiater/foodbench/internal/inference"
	"github.com/mwiater/foodbench/internal/logging"
)

// watchOptions holds the flag values for the watch command.
type watchOptions struct {
	schedule   string
	runOnStart bool
	modelPath  string
	datasetDir string
}

var watchOpts watchOptions

// watchCmd re-evaluates the configured dataset on a cron schedule.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate the dataset on a cron schedule and archive each run",
	Long: `Watch runs an evaluation pass whenever the cron schedule fires and
archives each run in the history database. A file lock keeps a second
watcher from evaluating the same configuration concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		modelPath := watchOpts.modelPath
		if modelPath == "" {
			modelPath = cfg.ModelPath
		}
		datasetDir := watchOpts.datasetDir
		if datasetDir == "" {
			datasetDir = cfg.DatasetDir
		}
		if modelPath == "" || datasetDir == "" {
			return fmt.Errorf("watch requires a model and dataset: pass --model/--dataset or set them in %s", configFileHint())
		}

		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		sched, err := parser.Parse(watchOpts.schedule)
		if err != nil {
			return fmt.Errorf("invalid --schedule %q: %w", watchOpts.schedule, err)
		}

		lockPath := filepath.Join(filepath.Dir(cfg.LogFilePath()), "foodbench.lock")
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquiring watcher lock %s: %w", lockPath, err)
		}
		if !ok {
			return errors.New("another foodbench watcher is already running")
		}
		defer func() { _ = lock.Unlock() }()

		ctx := cmd.Context()
		logging.LogEvent("watch: schedule=%q model=%s dataset=%s", watchOpts.schedule, modelPath, datasetDir)

		if watchOpts.runOnStart {
			if err := watchPass(ctx, cmd, cfg, modelPath, datasetDir); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logging.LogEvent("watch: pass failed: %v", err)
				cmd.PrintErrf("Evaluation pass failed: %v\n", err)
			}
		}

		for {
			now := time.Now()
			next := sched.Next(now)
			cmd.Printf("Next evaluation at %s (in %s)\n", next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Second))

			select {
			case <-ctx.Done():
				cmd.Println("Watcher stopped.")
				return nil
			case <-time.After(next.Sub(now)):
			}

			if err := watchPass(ctx, cmd, cfg, modelPath, datasetDir); err != nil {
				if errors.Is(err, context.Canceled) {
					cmd.Println("Watcher stopped.")
					return nil
				}
				logging.LogEvent("watch: pass failed: %v", err)
				cmd.PrintErrf("Evaluation pass failed: %v\n", err)
			}
		}
	},
}

// watchPass runs one scheduled evaluation and archives the result.
func watchPass(ctx context.Context, cmd *cobra.Command, cfg *appconfig.Config, modelPath, datasetDir string) error {
	settings := cfg.EvalSettings()

	samples, err := dataset.Scan(datasetDir, settings.Classes)
	if err != nil {
		return fmt.Errorf("scanning dataset: %w", err)
	}
	samples = dataset.Limit(samples, cfg.SampleCap(), cfg.ShuffleSeed())
	if len(samples) == 0 {
		return fmt.Errorf("dataset %s contains no labeled images for classes %v", datasetDir, settings.Classes)
	}

	classifier, err := inference.NewClassifier(modelPath, settings.Classes)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	defer classifier.Close()

	runner, err := inference.NewRunner(classifier, settings, cfg.WorkerCount(), cfg.WarmupCount())
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

	started := time.Now()
	records, err := runner.Evaluate(ctx, samples)
	if err != nil {
		return err
	}
	run.DurationMillis = float64(time.Since(started)) / float64(time.Millisecond)

	report, err := eval.AssembleReport(records, settings, run)
	if err != nil {
		return fmt.Errorf("assembling report: %w", err)
	}

	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	saved, err := store.Save(ctx, report)
	if err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}

	cmd.Printf("Run %s: accuracy %s, macro F1 %s, ECE %s over %d images\n",
		shortID(saved.ID), fmtPct(report.Accuracy), fmtFloat(report.MacroF1), fmtFloat(report.ECE), report.Run.RecordCount)
	logging.LogRun("watch", modelPath, datasetDir, map[string]any{
		"runId":    saved.ID,
		"records":  report.Run.RecordCount,
		"accuracy": report.Accuracy,
		"macroF1":  report.MacroF1,
		"ece":      report.ECE,
		"p95":      report.LatencyPercentiles.P95,
	})
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchOpts.schedule, "schedule", "0 * * * *", "Cron schedule (5-field) for evaluation passes")
	watchCmd.Flags().BoolVar(&watchOpts.runOnStart, "run-on-start", false, "Run one evaluation pass immediately before waiting for the schedule")
	watchCmd.Flags().StringVarP(&watchOpts.modelPath, "model", "m", "", "Path to the ONNX model (defaults to configured modelPath)")
	watchCmd.Flags().StringVarP(&watchOpts.datasetDir, "dataset", "d", "", "Dataset directory (defaults to configured datasetDir)")
}
