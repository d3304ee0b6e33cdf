// eval/calibration_test.go
package eval

import (
	"errors"
	"testing"
)

func TestComputeCalibrationScenario(t *testing.T) {
	summary, err := ComputeCalibration(scenarioRecords(t), DefaultBins)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if len(summary.Bins) != DefaultBins {
		t.Fatalf("expected %d bins, got %d", DefaultBins, len(summary.Bins))
	}

	// 0.95 lands in [0.9, 1.0], 0.80 in [0.8, 0.9), 0.60 in [0.6, 0.7).
	wantECE := ((0.95-1.0)*(-1) + (1.0 - 0.80) + (0.60 - 0)) / 3
	if !almost(summary.ECE, wantECE) {
		t.Fatalf("expected ECE %v, got %v", wantECE, summary.ECE)
	}
	if summary.ECE < 0 || summary.ECE > 1 {
		t.Fatalf("ECE outside [0, 1]: %v", summary.ECE)
	}

	top := summary.Bins[9]
	if top.Count != 1 || !almost(top.MeanConfidence, 0.95) || !almost(top.MeanAccuracy, 1) {
		t.Fatalf("unexpected final bin: %+v", top)
	}
	sixties := summary.Bins[6]
	if sixties.Count != 1 || !almost(sixties.MeanConfidence, 0.60) || !almost(sixties.MeanAccuracy, 0) {
		t.Fatalf("unexpected [0.6, 0.7) bin: %+v", sixties)
	}
}

func TestComputeCalibrationBoundaryMembership(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.5, "steak": 0.25, "sushi": 0.25}, 10),
	}
	summary, err := ComputeCalibration(records, DefaultBins)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	total := 0
	for _, bin := range summary.Bins {
		total += bin.Count
	}
	if total != 1 {
		t.Fatalf("boundary confidence double-counted or dropped: %+v", summary.Bins)
	}
	if summary.Bins[5].Count != 1 {
		t.Fatalf("expected 0.5 in the [0.5, 0.6) bin, got %+v", summary.Bins)
	}
	if summary.Bins[4].Count != 0 {
		t.Fatalf("0.5 must not fall in [0.4, 0.5), got %+v", summary.Bins[4])
	}
}

func TestComputeCalibrationFullConfidenceInFinalBin(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 1, "steak": 0, "sushi": 0}, 10),
	}
	summary, err := ComputeCalibration(records, DefaultBins)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if summary.Bins[9].Count != 1 {
		t.Fatalf("expected confidence 1.0 in the final bin, got %+v", summary.Bins)
	}
	if !almost(summary.ECE, 0) {
		t.Fatalf("perfectly confident and correct must give ECE 0, got %v", summary.ECE)
	}
}

func TestComputeCalibrationPerfectlyCalibratedBin(t *testing.T) {
	// Four records in [0.7, 0.8) at confidence 0.75, three correct: the
	// bin's accuracy equals its mean confidence, so ECE is 0.
	vector := map[string]float64{"pizza": 0.75, "steak": 0.15, "sushi": 0.10}
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", vector, 10),
		mustRecord(t, "pizza", "pizza", vector, 10),
		mustRecord(t, "pizza", "pizza", vector, 10),
		mustRecord(t, "steak", "pizza", vector, 10),
	}
	summary, err := ComputeCalibration(records, DefaultBins)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if !almost(summary.ECE, 0) {
		t.Fatalf("expected ECE 0 for a perfectly calibrated bin, got %v", summary.ECE)
	}
}

func TestComputeCalibrationEmptyBinsEmitted(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.95, "steak": 0.03, "sushi": 0.02}, 10),
	}
	summary, err := ComputeCalibration(records, 4)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if len(summary.Bins) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(summary.Bins))
	}
	for i, bin := range summary.Bins[:3] {
		if bin.Count != 0 || bin.MeanConfidence != 0 || bin.MeanAccuracy != 0 {
			t.Fatalf("empty bin %d must be zero-valued, got %+v", i, bin)
		}
	}
	if summary.Bins[3].Count != 1 {
		t.Fatalf("expected the record in the final quarter, got %+v", summary.Bins)
	}
}

func TestComputeCalibrationUnknownUsesMaxProbability(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", ClassUnknown, map[string]float64{"pizza": 0.55, "steak": 0.25, "sushi": 0.20}, 10),
	}
	summary, err := ComputeCalibration(records, DefaultBins)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if summary.Bins[5].Count != 1 {
		t.Fatalf("expected unknown confidence 0.55 in [0.5, 0.6), got %+v", summary.Bins)
	}
	if !almost(summary.ECE, 0.55) {
		t.Fatalf("expected ECE 0.55 for one wrong record, got %v", summary.ECE)
	}
}

func TestComputeCalibrationConfidenceSummary(t *testing.T) {
	summary, err := ComputeCalibration(scenarioRecords(t), DefaultBins)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if !almost(summary.Summary.MeanConfidenceCorrect, (0.95+0.80)/2) {
		t.Fatalf("unexpected mean confidence when correct: %v", summary.Summary.MeanConfidenceCorrect)
	}
	if !almost(summary.Summary.MeanConfidenceIncorrect, 0.60) {
		t.Fatalf("unexpected mean confidence when wrong: %v", summary.Summary.MeanConfidenceIncorrect)
	}
	if !almost(summary.Summary.ConfidenceGap, (0.95+0.80)/2-0.60) {
		t.Fatalf("unexpected confidence gap: %v", summary.Summary.ConfidenceGap)
	}
}

func TestComputeCalibrationGapZeroWhenOneSided(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.9, "steak": 0.06, "sushi": 0.04}, 10),
	}
	summary, err := ComputeCalibration(records, DefaultBins)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if summary.Summary.ConfidenceGap != 0 {
		t.Fatalf("gap must be 0 without incorrect records, got %v", summary.Summary.ConfidenceGap)
	}
	if summary.Summary.MeanConfidenceIncorrect != 0 {
		t.Fatalf("empty side must report 0, got %v", summary.Summary.MeanConfidenceIncorrect)
	}
}

func TestComputeCalibrationSingleBin(t *testing.T) {
	summary, err := ComputeCalibration(scenarioRecords(t), 1)
	if err != nil {
		t.Fatalf("ComputeCalibration error: %v", err)
	}
	if len(summary.Bins) != 1 || summary.Bins[0].Count != 3 {
		t.Fatalf("expected one bin holding everything, got %+v", summary.Bins)
	}
	// Mean confidence (0.95+0.80+0.60)/3 against accuracy 2/3.
	want := (0.95+0.80+0.60)/3 - 2.0/3.0
	if !almost(summary.ECE, want) {
		t.Fatalf("expected ECE %v, got %v", want, summary.ECE)
	}
}

func TestComputeCalibrationErrors(t *testing.T) {
	if _, err := ComputeCalibration(scenarioRecords(t), 0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for zero bins, got %v", err)
	}
	if _, err := ComputeCalibration(nil, DefaultBins); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMineConfidenceSamples(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.55, "steak": 0.25, "sushi": 0.20}, 10),
		mustRecord(t, "sushi", "steak", map[string]float64{"pizza": 0.05, "steak": 0.90, "sushi": 0.05}, 10),
		mustRecord(t, "steak", "steak", map[string]float64{"pizza": 0.02, "steak": 0.96, "sushi": 0.02}, 10),
		mustRecord(t, "sushi", "pizza", map[string]float64{"pizza": 0.50, "steak": 0.25, "sushi": 0.25}, 10),
	}
	findings := MineConfidenceSamples(records, 10)
	if len(findings.Overconfident) != 2 {
		t.Fatalf("expected 2 overconfident samples, got %+v", findings.Overconfident)
	}
	if findings.Overconfident[0].Index != 1 || !almost(findings.Overconfident[0].Confidence, 0.90) {
		t.Fatalf("expected the 0.90 misprediction first, got %+v", findings.Overconfident[0])
	}
	if len(findings.Underconfident) != 2 {
		t.Fatalf("expected 2 underconfident samples, got %+v", findings.Underconfident)
	}
	if findings.Underconfident[0].Index != 0 || !almost(findings.Underconfident[0].Confidence, 0.55) {
		t.Fatalf("expected the 0.55 correct record first, got %+v", findings.Underconfident[0])
	}

	capped := MineConfidenceSamples(records, 1)
	if len(capped.Overconfident) != 1 || len(capped.Underconfident) != 1 {
		t.Fatalf("expected depth to cap findings, got %+v", capped)
	}
}
