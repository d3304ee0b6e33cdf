// eval/latency_test.go
package eval

import (
	"errors"
	"testing"
)

func latencyRecords(t *testing.T, latencies ...float64) []PredictionRecord {
	t.Helper()
	records := make([]PredictionRecord, len(latencies))
	for i, l := range latencies {
		records[i] = mustRecord(t, "pizza", "pizza", map[string]float64{"pizza": 0.9, "steak": 0.06, "sushi": 0.04}, l)
	}
	return records
}

func TestComputeLatencyNearestRank(t *testing.T) {
	latencies := make([]float64, 100)
	for i := range latencies {
		latencies[i] = float64(i + 1)
	}
	summary, err := ComputeLatency(latencyRecords(t, latencies...))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	// rank = ceil(p*100): p50 -> 50th value, p95 -> 95th, p99 -> 99th.
	if summary.Percentiles.P50 != 50 || summary.Percentiles.P95 != 95 || summary.Percentiles.P99 != 99 {
		t.Fatalf("unexpected percentiles: %+v", summary.Percentiles)
	}
	if summary.Stats.Min != 1 || summary.Stats.Max != 100 {
		t.Fatalf("unexpected min/max: %+v", summary.Stats)
	}
	if !almost(summary.Stats.Mean, 50.5) {
		t.Fatalf("expected mean 50.5, got %v", summary.Stats.Mean)
	}
}

func TestComputeLatencySmallInputs(t *testing.T) {
	summary, err := ComputeLatency(latencyRecords(t, 42))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	p := summary.Percentiles
	if p.P50 != 42 || p.P95 != 42 || p.P99 != 42 {
		t.Fatalf("single record must fill every percentile: %+v", p)
	}
	if summary.Stats.StdDev != 0 {
		t.Fatalf("expected stddev 0 for one record, got %v", summary.Stats.StdDev)
	}

	summary, err = ComputeLatency(latencyRecords(t, 30, 10))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	// rank = ceil(0.5*2) = 1 -> 10; ceil(0.95*2) = 2 -> 30.
	if summary.Percentiles.P50 != 10 || summary.Percentiles.P95 != 30 || summary.Percentiles.P99 != 30 {
		t.Fatalf("unexpected two-record percentiles: %+v", summary.Percentiles)
	}
}

func TestComputeLatencyMonotonicPercentiles(t *testing.T) {
	summary, err := ComputeLatency(latencyRecords(t, 7, 3, 91, 15, 15, 2, 44, 8, 23, 5))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	p := summary.Percentiles
	if p.P50 > p.P95 || p.P95 > p.P99 {
		t.Fatalf("percentiles must be monotonic: %+v", p)
	}
}

func TestComputeLatencyDuplicatesDeterministic(t *testing.T) {
	first, err := ComputeLatency(latencyRecords(t, 5, 5, 5, 5))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	second, err := ComputeLatency(latencyRecords(t, 5, 5, 5, 5))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	if first != second {
		t.Fatalf("duplicate latencies must be deterministic: %+v vs %+v", first, second)
	}
	if first.Percentiles.P50 != 5 || first.Stats.StdDev != 0 {
		t.Fatalf("unexpected stats for identical values: %+v", first)
	}
}

func TestComputeLatencyThroughput(t *testing.T) {
	summary, err := ComputeLatency(latencyRecords(t, 20, 30, 10))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	if !almost(summary.Stats.ThroughputPerSec, 50) {
		t.Fatalf("expected 50 images/sec at 20ms mean, got %v", summary.Stats.ThroughputPerSec)
	}
}

func TestComputeLatencyZeroLatencies(t *testing.T) {
	summary, err := ComputeLatency(latencyRecords(t, 0, 0))
	if err != nil {
		t.Fatalf("ComputeLatency error: %v", err)
	}
	if summary.Stats.ThroughputPerSec != 0 {
		t.Fatalf("zero mean latency must not divide, got %v", summary.Stats.ThroughputPerSec)
	}
}

func TestComputeLatencyEmpty(t *testing.T) {
	if _, err := ComputeLatency(nil); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
