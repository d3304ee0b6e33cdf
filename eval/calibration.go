// eval/calibration.go
package eval

import (
	"fmt"
	"math"
	"sort"
)

// ConfidenceBin is one equal-width slice of the [0, 1] confidence range.
// Bins are lower-inclusive and upper-exclusive except the final bin, which
// includes 1.0, so every confidence lands in exactly one bin.
type ConfidenceBin struct {
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
	MeanConfidence float64 `json:"mean_confidence"`
	MeanAccuracy   float64 `json:"mean_accuracy"`
	Count          int     `json:"count"`
}

// ConfidenceSummary compares how sure the classifier was when it was right
// against how sure it was when it was wrong. Means are 0 when a side has
// no records, and the gap is 0 unless both sides are populated.
type ConfidenceSummary struct {
	MeanConfidenceCorrect   float64 `json:"mean_confidence_correct"`
	MeanConfidenceIncorrect float64 `json:"mean_confidence_incorrect"`
	ConfidenceGap           float64 `json:"confidence_gap"`
}

// CalibrationSummary holds the reliability-diagram bins, the expected
// calibration error, and the correct/incorrect confidence comparison.
type CalibrationSummary struct {
	Bins    []ConfidenceBin   `json:"bins"`
	ECE     float64           `json:"ece"`
	Summary ConfidenceSummary `json:"confidence_summary"`
}

// MinedSample is a record surfaced by confidence mining, identified by its
// position in the record sequence and, when available, its sample id.
type MinedSample struct {
	Index          int     `json:"index"`
	Sample         string  `json:"sample,omitempty"`
	TrueClass      string  `json:"true_class"`
	PredictedClass string  `json:"predicted_class"`
	Confidence     float64 `json:"confidence"`
}

// SampleFindings lists the most overconfident mispredictions and the least
// confident correct predictions.
type SampleFindings struct {
	Overconfident  []MinedSample `json:"overconfident"`
	Underconfident []MinedSample `json:"underconfident"`
}

// ComputeCalibration partitions records into bins equal-width confidence
// bins keyed by each record's Confidence, then derives per-bin mean
// confidence and empirical accuracy and the ECE across bins. Empty bins are
// emitted with a zero count and zero means so the bin sequence always has
// the configured length; they contribute exactly 0 to the ECE.
func ComputeCalibration(records []PredictionRecord, bins int) (CalibrationSummary, error) {
	if bins < 1 {
		return CalibrationSummary{}, fmt.Errorf("%w: bin count %d must be at least 1", ErrConfiguration, bins)
	}
	if len(records) == 0 {
		return CalibrationSummary{}, fmt.Errorf("calibration analyzer: %w", ErrInsufficientData)
	}

	counts := make([]int, bins)
	confidenceSums := make([]float64, bins)
	correctCounts := make([]int, bins)
	var correctConfidences, incorrectConfidences []float64
	for _, r := range records {
		confidence := r.Confidence()
		i := binIndex(confidence, bins)
		counts[i]++
		confidenceSums[i] += confidence
		if r.Correct() {
			correctCounts[i]++
			correctConfidences = append(correctConfidences, confidence)
		} else {
			incorrectConfidences = append(incorrectConfidences, confidence)
		}
	}

	out := make([]ConfidenceBin, bins)
	ece := 0.0
	total := float64(len(records))
	for i := 0; i < bins; i++ {
		bin := ConfidenceBin{
			Lower: float64(i) / float64(bins),
			Upper: float64(i+1) / float64(bins),
			Count: counts[i],
		}
		if counts[i] > 0 {
			bin.MeanConfidence = confidenceSums[i] / float64(counts[i])
			bin.MeanAccuracy = float64(correctCounts[i]) / float64(counts[i])
			ece += float64(counts[i]) / total * math.Abs(bin.MeanConfidence-bin.MeanAccuracy)
		}
		out[i] = bin
	}

	summary := ConfidenceSummary{
		MeanConfidenceCorrect:   mean(correctConfidences),
		MeanConfidenceIncorrect: mean(incorrectConfidences),
	}
	if len(correctConfidences) > 0 && len(incorrectConfidences) > 0 {
		summary.ConfidenceGap = summary.MeanConfidenceCorrect - summary.MeanConfidenceIncorrect
	}

	return CalibrationSummary{Bins: out, ECE: ece, Summary: summary}, nil
}

// binIndex locates the bin for a confidence value. Boundaries are computed
// as i/bins, the same expression that fills ConfidenceBin.Lower and .Upper,
// so membership always agrees with the emitted bounds.
func binIndex(confidence float64, bins int) int {
	for i := 1; i < bins; i++ {
		if confidence < float64(i)/float64(bins) {
			return i - 1
		}
	}
	return bins - 1
}

// MineConfidenceSamples returns up to depth overconfident records
// (mispredictions ordered by confidence descending) and up to depth
// underconfident records (correct predictions ordered by confidence
// ascending). Equal confidences keep record order, so output is
// deterministic. A depth of 0 falls back to DefaultMiningDepth.
func MineConfidenceSamples(records []PredictionRecord, depth int) SampleFindings {
	if depth == 0 {
		depth = DefaultMiningDepth
	}
	if depth < 0 {
		return SampleFindings{}
	}

	var over, under []MinedSample
	for i, r := range records {
		mined := MinedSample{
			Index:          i,
			Sample:         r.Sample,
			TrueClass:      r.TrueClass,
			PredictedClass: r.PredictedClass,
			Confidence:     r.Confidence(),
		}
		if r.Correct() {
			under = append(under, mined)
		} else {
			over = append(over, mined)
		}
	}
	sort.SliceStable(over, func(i, j int) bool { return over[i].Confidence > over[j].Confidence })
	sort.SliceStable(under, func(i, j int) bool { return under[i].Confidence < under[j].Confidence })
	if len(over) > depth {
		over = over[:depth]
	}
	if len(under) > depth {
		under = under[:depth]
	}
	return SampleFindings{Overconfident: over, Underconfident: under}
}
