// eval/report_test.go
package eval

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestAssembleReportScenario(t *testing.T) {
	run := RunInfo{
		ID:        "run-1",
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Model:     "models/food.onnx",
		Dataset:   "data/test",
	}
	report, err := AssembleReport(scenarioRecords(t), DefaultSettings(), run)
	if err != nil {
		t.Fatalf("AssembleReport error: %v", err)
	}
	if !almost(report.Accuracy, 2.0/3.0) {
		t.Fatalf("expected accuracy 2/3, got %v", report.Accuracy)
	}
	if !almost(report.MacroF1, 5.0/9.0) {
		t.Fatalf("expected macro F1 5/9, got %v", report.MacroF1)
	}
	if report.ConfusionMatrix["sushi"]["steak"] != 1 {
		t.Fatalf("expected confusion[sushi][steak]=1")
	}
	if report.Run.RecordCount != 3 {
		t.Fatalf("expected record count 3, got %d", report.Run.RecordCount)
	}
	if !almost(report.Run.Threshold, DefaultThreshold) || report.Run.Bins != DefaultBins {
		t.Fatalf("run metadata must carry settings: %+v", report.Run)
	}
	if len(report.ConfidenceBins) != DefaultBins {
		t.Fatalf("expected %d confidence bins, got %d", DefaultBins, len(report.ConfidenceBins))
	}
	if report.LatencyPercentiles.P50 != 15 {
		t.Fatalf("expected p50 15, got %v", report.LatencyPercentiles.P50)
	}
	if len(report.Samples.Overconfident) != 1 {
		t.Fatalf("expected one mined overconfident sample, got %+v", report.Samples)
	}
}

func TestAssembleReportIdempotent(t *testing.T) {
	records := scenarioRecords(t)
	run := RunInfo{ID: "run-7", CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}

	first, err := AssembleReport(records, DefaultSettings(), run)
	if err != nil {
		t.Fatalf("AssembleReport error: %v", err)
	}
	second, err := AssembleReport(records, DefaultSettings(), run)
	if err != nil {
		t.Fatalf("AssembleReport error: %v", err)
	}

	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	secondJSON, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !bytes.Equal(firstJSON, secondJSON) {
		t.Fatalf("reports differ across identical runs")
	}
}

func TestAssembleReportDoesNotMutateInput(t *testing.T) {
	records := scenarioRecords(t)
	before, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if _, err := AssembleReport(records, DefaultSettings(), RunInfo{}); err != nil {
		t.Fatalf("AssembleReport error: %v", err)
	}
	after, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("assembler mutated its input records")
	}
}

func TestAssembleReportValidatesSettingsFirst(t *testing.T) {
	bad := Settings{Classes: DefaultClasses(), Threshold: 2, Bins: 10}
	_, err := AssembleReport(nil, bad, RunInfo{})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration before the empty-input check, got %v", err)
	}
}

func TestAssembleReportEmpty(t *testing.T) {
	if _, err := AssembleReport(nil, DefaultSettings(), RunInfo{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
