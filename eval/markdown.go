// eval/markdown.go
package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// BuildMarkdown renders a report as a Markdown summary: headline metrics,
// per-class quality, the confusion matrix, calibration bins, and latency.
func BuildMarkdown(r *EvaluationReport) string {
	var b strings.Builder
	b.WriteString("# Evaluation Report\n\n")
	if r.Run.ID != "" {
		b.WriteString(fmt.Sprintf("- Run: `%s`\n", r.Run.ID))
	}
	if !r.Run.CreatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("- Created: %s\n", r.Run.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	}
	if r.Run.Model != "" {
		b.WriteString(fmt.Sprintf("- Model: `%s`\n", r.Run.Model))
	}
	if r.Run.Dataset != "" {
		b.WriteString(fmt.Sprintf("- Dataset: `%s`\n", r.Run.Dataset))
	}
	b.WriteString(fmt.Sprintf("- Records: `%d`\n", r.Run.RecordCount))
	b.WriteString(fmt.Sprintf("- Threshold: `%.2f`\n", r.Run.Threshold))
	if r.Run.ModelSizeMB > 0 {
		b.WriteString(fmt.Sprintf("- Model Size: `%.1f MB`\n", r.Run.ModelSizeMB))
	}
	b.WriteString("\n## Headline\n\n")
	b.WriteString(fmt.Sprintf("- Accuracy: **%.4f**\n", r.Accuracy))
	b.WriteString(fmt.Sprintf("- Macro F1: **%.4f**\n", r.MacroF1))
	b.WriteString(fmt.Sprintf("- Weighted F1: **%.4f**\n", r.WeightedF1))
	b.WriteString(fmt.Sprintf("- ECE: **%.4f**\n", r.ECE))

	b.WriteString("\n## Per-Class Metrics\n\n")
	b.WriteString("| Class | Precision | Recall | F1 | Support |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, c := range r.Classes {
		m := r.PerClass[c]
		b.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %d |\n", c, m.Precision, m.Recall, m.F1, m.Support))
	}

	b.WriteString("\n## Top-K Accuracy\n\n")
	b.WriteString("| K | Accuracy |\n")
	b.WriteString("|---:|---:|\n")
	for _, k := range r.TopK {
		b.WriteString(fmt.Sprintf("| %d | %.4f |\n", k.K, k.Accuracy))
	}

	b.WriteString("\n## Confusion Matrix\n\n")
	b.WriteString("| True \\ Predicted |")
	for _, p := range r.PredictedLabels {
		b.WriteString(" " + p + " |")
	}
	b.WriteString("\n|---|")
	for range r.PredictedLabels {
		b.WriteString("---:|")
	}
	b.WriteString("\n")
	for _, t := range r.Classes {
		b.WriteString("| " + t + " |")
		for _, p := range r.PredictedLabels {
			b.WriteString(fmt.Sprintf(" %d |", r.ConfusionMatrix[t][p]))
		}
		b.WriteString("\n")
	}

	if len(r.TopConfusions) > 0 {
		b.WriteString("\n## Top Confusions\n\n")
		for _, c := range r.TopConfusions {
			b.WriteString(fmt.Sprintf("- %s mistaken for %s: %d\n", c.TrueClass, c.PredictedClass, c.Count))
		}
	}

	b.WriteString("\n## Calibration\n\n")
	b.WriteString(fmt.Sprintf("- Mean confidence when correct: `%.4f`\n", r.ConfidenceSummary.MeanConfidenceCorrect))
	b.WriteString(fmt.Sprintf("- Mean confidence when wrong: `%.4f`\n", r.ConfidenceSummary.MeanConfidenceIncorrect))
	b.WriteString(fmt.Sprintf("- Confidence gap: `%.4f`\n\n", r.ConfidenceSummary.ConfidenceGap))
	b.WriteString("| Bin | Count | Mean Confidence | Accuracy |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for i, bin := range r.ConfidenceBins {
		// The final bin is closed so confidence 1.0 lands somewhere.
		closing := ")"
		if i == len(r.ConfidenceBins)-1 {
			closing = "]"
		}
		b.WriteString(fmt.Sprintf("| [%.2f, %.2f%s | %d | %.4f | %.4f |\n", bin.Lower, bin.Upper, closing, bin.Count, bin.MeanConfidence, bin.MeanAccuracy))
	}

	b.WriteString("\n## Latency\n\n")
	b.WriteString("| p50 | p95 | p99 | Mean | Min | Max | StdDev | Throughput |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	b.WriteString(fmt.Sprintf("| %.2f ms | %.2f ms | %.2f ms | %.2f ms | %.2f ms | %.2f ms | %.2f ms | %.1f/s |\n",
		r.LatencyPercentiles.P50, r.LatencyPercentiles.P95, r.LatencyPercentiles.P99,
		r.LatencyStats.Mean, r.LatencyStats.Min, r.LatencyStats.Max, r.LatencyStats.StdDev,
		r.LatencyStats.ThroughputPerSec))

	return b.String()
}

// WriteMarkdown writes the Markdown summary to path.
func WriteMarkdown(path string, r *EvaluationReport) error {
	return os.WriteFile(path, []byte(BuildMarkdown(r)), 0o644)
}

// WriteJSON writes the report as indented JSON to path.
func WriteJSON(path string, r *EvaluationReport) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
