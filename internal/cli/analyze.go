// internal/cli/analyze.go
package foodbench

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mwiater/foodbench/eval"
	"github.com/mwiater/foodbench/internal/history"
	"github.com/mwiater/foodbench/internal/logging"
)

// analyzeOptions holds the flag values for the analyze command.
type analyzeOptions struct {
	recordsPath   string
	reportDir     string
	skipArtifacts bool
	saveRun       bool
}

var analyzeOpts analyzeOptions

// analyzeCmd recomputes the evaluation report from a stored records file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Recompute the evaluation report from a prediction records file",
	Long: `Analyze reads prediction records from a JSONL file and recomputes the
full report without loading a model or touching the dataset. Use it to
re-examine past runs under different thresholds or bin counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		recordsPath := analyzeOpts.recordsPath
		if recordsPath == "" {
			recordsPath = cfg.RecordsFilePath()
		}

		settings := cfg.EvalSettings()

		records, err := eval.LoadRecords(recordsPath, settings.Classes)
		if err != nil {
			return fmt.Errorf("loading records from %s: %w", recordsPath, err)
		}

		run := eval.RunInfo{
			ID:        uuid.NewString(),
			CreatedAt: time.Now().UTC(),
			Dataset:   recordsPath,
		}
		report, err := eval.AssembleReport(records, settings, run)
		if err != nil {
			return fmt.Errorf("assembling report: %w", err)
		}

		out := cmd.OutOrStdout()
		colorize := shouldColorize(out) && !ColorDisabled()
		printReportTables(out, report, colorize)
		cmd.Println()

		if !analyzeOpts.skipArtifacts {
			reportDir := analyzeOpts.reportDir
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

		if analyzeOpts.saveRun {
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

		logging.LogRun("analyze", "", recordsPath, map[string]any{
			"runId":    report.Run.ID,
			"records":  report.Run.RecordCount,
			"accuracy": report.Accuracy,
			"macroF1":  report.MacroF1,
			"ece":      report.ECE,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeOpts.recordsPath, "records", "r", "", "JSONL records file to analyze (defaults to configured recordsPath)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.reportDir, "report-dir", "", "Directory for report artifacts (defaults to configured reportDir)")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.skipArtifacts, "no-artifacts", false, "Skip writing JSON/Markdown/HTML report files")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.saveRun, "save", false, "Archive the recomputed report in the history database")
}
