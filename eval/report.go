// eval/report.go
package eval

import (
	"fmt"
	"time"
)

// RunInfo describes the evaluation pass a report came from. The assembler
// fills RecordCount, Threshold, and Bins; everything else is supplied by
// the caller, so assembling the same records with the same RunInfo is
// bit-identical.
type RunInfo struct {
	ID             string    `json:"id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Model          string    `json:"model,omitempty"`
	Dataset        string    `json:"dataset,omitempty"`
	RecordCount    int       `json:"record_count"`
	Threshold      float64   `json:"threshold"`
	Bins           int       `json:"bins"`
	ModelSizeMB    float64   `json:"model_size_mb,omitempty"`
	DurationMillis float64   `json:"duration_ms,omitempty"`
}

// EvaluationReport is the merged output of the four analyzers plus run
// metadata. It is read-only after assembly, owned by the caller, and
// serializes to flat JSON: the confusion matrix and confidence bins are
// already shaped for a heatmap and a reliability diagram.
type EvaluationReport struct {
	Run                 RunInfo                       `json:"run"`
	Accuracy            float64                       `json:"accuracy"`
	PerClass            map[string]ClassMetrics       `json:"per_class"`
	MacroF1             float64                       `json:"macro_f1"`
	WeightedF1          float64                       `json:"weighted_f1"`
	TopK                []TopKAccuracy                `json:"top_k_accuracy"`
	Classes             []string                      `json:"classes"`
	PredictedLabels     []string                      `json:"predicted_labels"`
	ConfusionMatrix     map[string]map[string]int     `json:"confusion_matrix"`
	NormalizedConfusion map[string]map[string]float64 `json:"normalized_confusion"`
	TopConfusions       []ConfusionPair               `json:"top_confusions"`
	ECE                 float64                       `json:"ece"`
	ConfidenceBins      []ConfidenceBin               `json:"confidence_bins"`
	ConfidenceSummary   ConfidenceSummary             `json:"confidence_summary"`
	Samples             SampleFindings                `json:"samples"`
	LatencyPercentiles  LatencyPercentiles            `json:"latency_percentiles"`
	LatencyStats        LatencyStats                  `json:"latency_stats"`
}

// AssembleReport runs the four analyzers over the same record slice and
// merges their outputs. Pure aggregation: the input is never mutated, the
// analyzers share no state, and identical inputs produce identical
// reports. Settings are validated before any analyzer runs.
func AssembleReport(records []PredictionRecord, settings Settings, run RunInfo) (*EvaluationReport, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("report assembler: %w", ErrInsufficientData)
	}

	metrics, err := ComputeMetrics(records, settings.Classes)
	if err != nil {
		return nil, err
	}
	confusion, err := ComputeConfusion(records, settings.Classes)
	if err != nil {
		return nil, err
	}
	calibration, err := ComputeCalibration(records, settings.Bins)
	if err != nil {
		return nil, err
	}
	latency, err := ComputeLatency(records)
	if err != nil {
		return nil, err
	}

	run.RecordCount = len(records)
	run.Threshold = settings.Threshold
	run.Bins = settings.Bins

	return &EvaluationReport{
		Run:                 run,
		Accuracy:            metrics.Accuracy,
		PerClass:            metrics.PerClass,
		MacroF1:             metrics.MacroF1,
		WeightedF1:          metrics.WeightedF1,
		TopK:                metrics.TopK,
		Classes:             confusion.Classes,
		PredictedLabels:     confusion.PredictedLabels,
		ConfusionMatrix:     confusion.Matrix,
		NormalizedConfusion: confusion.Normalized,
		TopConfusions:       confusion.TopConfusions,
		ECE:                 calibration.ECE,
		ConfidenceBins:      calibration.Bins,
		ConfidenceSummary:   calibration.Summary,
		Samples:             MineConfidenceSamples(records, settings.MiningDepth),
		LatencyPercentiles:  latency.Percentiles,
		LatencyStats:        latency.Stats,
	}, nil
}
