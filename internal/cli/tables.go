// internal/cli/tables.go
package foodbench

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mwiater/foodbench/eval"
	"github.com/mwiater/foodbench/internal/dataset"
	"github.com/mwiater/foodbench/internal/history"
	"github.com/mwiater/foodbench/internal/inference"
	"github.com/mwiater/foodbench/internal/util"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

var (
	okLabel   = color.New(color.FgGreen).SprintFunc()
	warnLabel = color.New(color.FgYellow).SprintFunc()
	badLabel  = color.New(color.FgRed).SprintFunc()
)

// renderTable draws a rounded table with per-column alignment. Short rows
// are padded with empty cells.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSectionHeader draws a titled rule above each report section.
func renderSectionHeader(title string) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	return line + "\n" + strings.Repeat("-", len(line))
}

// shouldColorize reports whether the writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// displayClass renders a class label for terminal output.
func displayClass(name string) string {
	return cases.Title(language.Und).String(name)
}

// shortID trims a uuid to its leading segment for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func fmtFloat(v float64) string { return fmt.Sprintf("%.3f", v) }
func fmtPct(v float64) string   { return fmt.Sprintf("%.1f%%", v*100) }
func fmtMs(v float64) string    { return fmt.Sprintf("%.1f ms", v) }

// printReportTables renders the full evaluation report to the terminal.
func printReportTables(w io.Writer, r *eval.EvaluationReport, colorize bool) {
	fmt.Fprintln(w, renderSectionHeader("Evaluation Summary"))
	if r.Run.Model != "" || r.Run.Dataset != "" {
		fmt.Fprintf(w, "Model: %s  Dataset: %s\n", valueOrDash(r.Run.Model), valueOrDash(r.Run.Dataset))
	}
	fmt.Fprintf(w, "Records: %d  Threshold: %.2f  Bins: %d\n\n", r.Run.RecordCount, r.Run.Threshold, r.Run.Bins)

	summaryRows := [][]string{
		{"Accuracy", fmtPct(r.Accuracy)},
		{"Macro F1", fmtFloat(r.MacroF1)},
		{"Weighted F1", fmtFloat(r.WeightedF1)},
		{"ECE", fmtFloat(r.ECE)},
		{"Confidence gap", fmtFloat(r.ConfidenceSummary.ConfidenceGap)},
		{"Latency p50", fmtMs(r.LatencyPercentiles.P50)},
		{"Latency p95", fmtMs(r.LatencyPercentiles.P95)},
		{"Latency p99", fmtMs(r.LatencyPercentiles.P99)},
		{"Throughput", fmt.Sprintf("%.1f img/s", r.LatencyStats.ThroughputPerSec)},
	}
	fmt.Fprintln(w, renderTable([]string{"Metric", "Value"}, summaryRows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(w)

	fmt.Fprintln(w, renderSectionHeader("Per-Class Metrics"))
	classRows := make([][]string, 0, len(r.Classes))
	for _, class := range r.Classes {
		m := r.PerClass[class]
		classRows = append(classRows, []string{
			displayClass(class),
			fmtFloat(m.Precision),
			fmtFloat(m.Recall),
			fmtFloat(m.F1),
			fmt.Sprintf("%d", m.Support),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Class", "Precision", "Recall", "F1", "Support"},
		classRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintln(w)

	fmt.Fprintln(w, renderSectionHeader("Confusion Matrix"))
	confusionHeaders := make([]string, 0, len(r.PredictedLabels)+1)
	confusionHeaders = append(confusionHeaders, "True \\ Predicted")
	for _, label := range r.PredictedLabels {
		confusionHeaders = append(confusionHeaders, displayClass(label))
	}
	confusionAligns := make([]columnAlignment, len(confusionHeaders))
	for i := 1; i < len(confusionAligns); i++ {
		confusionAligns[i] = alignRight
	}
	confusionRows := make([][]string, 0, len(r.Classes))
	for _, trueClass := range r.Classes {
		row := []string{displayClass(trueClass)}
		for _, predicted := range r.PredictedLabels {
			count := r.ConfusionMatrix[trueClass][predicted]
			cell := fmt.Sprintf("%d", count)
			if colorize && count > 0 {
				if predicted == trueClass {
					cell = okLabel(cell)
				} else {
					cell = badLabel(cell)
				}
			}
			row = append(row, cell)
		}
		confusionRows = append(confusionRows, row)
	}
	fmt.Fprintln(w, renderTable(confusionHeaders, confusionRows, confusionAligns))
	if len(r.TopConfusions) > 0 {
		fmt.Fprintln(w)
		for _, pair := range r.TopConfusions {
			line := fmt.Sprintf("Most confused: %s -> %s (%d)", displayClass(pair.TrueClass), displayClass(pair.PredictedClass), pair.Count)
			if colorize {
				line = warnLabel(line)
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, renderSectionHeader("Calibration"))
	binRows := make([][]string, 0, len(r.ConfidenceBins))
	for _, bin := range r.ConfidenceBins {
		binRows = append(binRows, []string{
			fmt.Sprintf("%.1f-%.1f", bin.Lower, bin.Upper),
			fmt.Sprintf("%d", bin.Count),
			fmtFloat(bin.MeanConfidence),
			fmtFloat(bin.MeanAccuracy),
			fmtFloat(bin.MeanConfidence - bin.MeanAccuracy),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Confidence", "Count", "Mean Conf", "Mean Acc", "Gap"},
		binRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}

// renderProbabilityTable lists per-class probabilities highest first.
func renderProbabilityTable(probabilities map[string]float64) string {
	classes := make([]string, 0, len(probabilities))
	for class := range probabilities {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		if probabilities[classes[i]] != probabilities[classes[j]] {
			return probabilities[classes[i]] > probabilities[classes[j]]
		}
		return classes[i] < classes[j]
	})

	rows := make([][]string, 0, len(classes))
	for _, class := range classes {
		rows = append(rows, []string{displayClass(class), fmtPct(probabilities[class])})
	}
	return renderTable([]string{"Class", "Probability"}, rows, []columnAlignment{alignLeft, alignRight})
}

// printPrediction renders a single-image classification result.
func printPrediction(w io.Writer, imagePath string, pred inference.Prediction, threshold float64, colorize bool) {
	fmt.Fprintln(w, renderSectionHeader("Prediction"))
	fmt.Fprintf(w, "Image: %s\n\n", imagePath)
	fmt.Fprintln(w, renderProbabilityTable(pred.Probabilities))
	fmt.Fprintln(w)

	if pred.Label == eval.ClassUnknown {
		line := fmt.Sprintf("Predicted: %s (best guess %s at %s, below threshold %.2f)",
			displayClass(pred.Label), displayClass(pred.ArgMax), fmtPct(pred.Confidence), threshold)
		if colorize {
			line = warnLabel(line)
		}
		fmt.Fprintln(w, line)
		return
	}

	line := fmt.Sprintf("Predicted: %s (%s confidence, %s)", displayClass(pred.Label), fmtPct(pred.Confidence), fmtMs(pred.LatencyMillis))
	if colorize {
		line = okLabel(line)
	}
	fmt.Fprintln(w, line)
}

// renderHistoryTable lists stored runs newest first.
func renderHistoryTable(runs []*history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		model := run.Model
		if model != "" {
			model = util.TruncateRunes(filepath.Base(model), 28)
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			valueOrDash(model),
			fmt.Sprintf("%d", run.RecordCount),
			fmtPct(run.Accuracy),
			fmtFloat(run.MacroF1),
			fmtFloat(run.ECE),
			fmtMs(run.P95),
		})
	}
	return renderTable(
		[]string{"ID", "Created", "Model", "Records", "Accuracy", "Macro F1", "ECE", "p95"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

// renderDatasetTable summarizes per-class image counts from a verify pass.
func renderDatasetTable(counts []dataset.ClassCount, colorize bool) string {
	rows := make([][]string, 0, len(counts))
	for _, count := range counts {
		status := "OK"
		switch {
		case count.Missing:
			status = "MISSING"
			if colorize {
				status = badLabel(status)
			}
		case count.Unreadable > 0:
			status = "WARN"
			if colorize {
				status = warnLabel(status)
			}
		case count.Images == 0:
			status = "EMPTY"
			if colorize {
				status = warnLabel(status)
			}
		default:
			if colorize {
				status = okLabel(status)
			}
		}
		rows = append(rows, []string{
			displayClass(count.Class),
			fmt.Sprintf("%d", count.Images),
			fmt.Sprintf("%d", count.Unreadable),
			status,
		})
	}
	return renderTable(
		[]string{"Class", "Images", "Unreadable", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	)
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
