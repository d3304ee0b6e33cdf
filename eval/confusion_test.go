// eval/confusion_test.go
package eval

import (
	"errors"
	"testing"
)

func TestComputeConfusionScenario(t *testing.T) {
	records := scenarioRecords(t)
	summary, err := ComputeConfusion(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	if summary.Matrix["sushi"]["steak"] != 1 {
		t.Fatalf("expected confusion[sushi][steak]=1, got %d", summary.Matrix["sushi"]["steak"])
	}
	if summary.Matrix["pizza"]["pizza"] != 1 || summary.Matrix["steak"]["steak"] != 1 {
		t.Fatalf("unexpected diagonal: %+v", summary.Matrix)
	}

	cells := 0
	diagonal := 0
	for _, trueClass := range summary.Classes {
		for _, predicted := range summary.PredictedLabels {
			cells += summary.Matrix[trueClass][predicted]
			if trueClass == predicted {
				diagonal += summary.Matrix[trueClass][predicted]
			}
		}
	}
	if cells != len(records) {
		t.Fatalf("expected cell sum %d, got %d", len(records), cells)
	}
	if !almost(float64(diagonal)/float64(len(records)), 2.0/3.0) {
		t.Fatalf("diagonal sum / total must equal accuracy, got %d/%d", diagonal, len(records))
	}
}

func TestComputeConfusionRowSumsEqualSupport(t *testing.T) {
	records := scenarioRecords(t)
	summary, err := ComputeConfusion(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	metrics, err := ComputeMetrics(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeMetrics error: %v", err)
	}
	for _, trueClass := range summary.Classes {
		rowSum := 0
		for _, predicted := range summary.PredictedLabels {
			rowSum += summary.Matrix[trueClass][predicted]
		}
		if rowSum != metrics.PerClass[trueClass].Support {
			t.Fatalf("%s: row sum %d, support %d", trueClass, rowSum, metrics.PerClass[trueClass].Support)
		}
	}
}

func TestComputeConfusionFullGrid(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.9, "steak": 0.06, "sushi": 0.04}, 10),
	}
	summary, err := ComputeConfusion(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	want := []string{"pizza", "steak", "sushi", ClassUnknown}
	if len(summary.PredictedLabels) != len(want) {
		t.Fatalf("expected predicted labels %v, got %v", want, summary.PredictedLabels)
	}
	for i, label := range want {
		if summary.PredictedLabels[i] != label {
			t.Fatalf("expected predicted labels %v, got %v", want, summary.PredictedLabels)
		}
	}
	for _, trueClass := range summary.Classes {
		for _, predicted := range summary.PredictedLabels {
			if _, ok := summary.Matrix[trueClass][predicted]; !ok {
				t.Fatalf("missing cell [%s][%s]", trueClass, predicted)
			}
		}
	}
}

func TestComputeConfusionUnknownColumn(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", ClassUnknown, map[string]float64{"pizza": 0.5, "steak": 0.3, "sushi": 0.2}, 10),
	}
	summary, err := ComputeConfusion(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	if summary.Matrix["pizza"][ClassUnknown] != 1 {
		t.Fatalf("expected unknown column count 1, got %d", summary.Matrix["pizza"][ClassUnknown])
	}
	if len(summary.TopConfusions) != 1 || summary.TopConfusions[0].PredictedClass != ClassUnknown {
		t.Fatalf("expected unknown as top confusion, got %+v", summary.TopConfusions)
	}
}

func TestComputeConfusionTopConfusionTieBreak(t *testing.T) {
	// pizza is mispredicted once as steak and once as sushi; the tie must
	// resolve to the lexically smaller label.
	records := []PredictionRecord{
		mustRecord(t, "pizza", "steak", map[string]float64{"pizza": 0.2, "steak": 0.7, "sushi": 0.1}, 10),
		mustRecord(t, "pizza", "sushi", map[string]float64{"pizza": 0.2, "steak": 0.1, "sushi": 0.7}, 10),
	}
	summary, err := ComputeConfusion(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	if len(summary.TopConfusions) != 1 {
		t.Fatalf("expected one top confusion, got %+v", summary.TopConfusions)
	}
	top := summary.TopConfusions[0]
	if top.TrueClass != "pizza" || top.PredictedClass != "steak" || top.Count != 1 {
		t.Fatalf("expected pizza->steak tie-break, got %+v", top)
	}
}

func TestComputeConfusionNoTopConfusionWhenPerfect(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.9, "steak": 0.06, "sushi": 0.04}, 10),
		mustRecord(t, "steak", "steak", map[string]float64{"pizza": 0.05, "steak": 0.9, "sushi": 0.05}, 10),
	}
	summary, err := ComputeConfusion(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	if len(summary.TopConfusions) != 0 {
		t.Fatalf("expected no top confusions, got %+v", summary.TopConfusions)
	}
}

func TestComputeConfusionNormalizedRows(t *testing.T) {
	summary, err := ComputeConfusion(scenarioRecords(t), DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	for _, trueClass := range summary.Classes {
		rowSum := 0.0
		for _, predicted := range summary.PredictedLabels {
			rowSum += summary.Normalized[trueClass][predicted]
		}
		if !almost(rowSum, 1) {
			t.Fatalf("%s: normalized row sums to %v", trueClass, rowSum)
		}
	}
	if !almost(summary.Normalized["sushi"]["steak"], 1) {
		t.Fatalf("expected normalized[sushi][steak]=1, got %v", summary.Normalized["sushi"]["steak"])
	}
}

func TestComputeConfusionZeroSupportRowNormalized(t *testing.T) {
	records := []PredictionRecord{
		mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.9, "steak": 0.06, "sushi": 0.04}, 10),
	}
	summary, err := ComputeConfusion(records, DefaultClasses())
	if err != nil {
		t.Fatalf("ComputeConfusion error: %v", err)
	}
	for _, predicted := range summary.PredictedLabels {
		if summary.Normalized["steak"][predicted] != 0 {
			t.Fatalf("zero-support row must normalize to zeros, got %v", summary.Normalized["steak"])
		}
	}
}

func TestComputeConfusionEmpty(t *testing.T) {
	if _, err := ComputeConfusion(nil, DefaultClasses()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestComputeConfusionBadClasses(t *testing.T) {
	if _, err := ComputeConfusion(scenarioRecords(t), []string{"pizza", "pizza"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
