// eval/latency.go
package eval

import "fmt"

// LatencyPercentiles are the nearest-rank order statistics of the recorded
// inference durations, in milliseconds.
type LatencyPercentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// LatencyStats captures distribution shape beyond the percentiles plus the
// implied single-stream throughput.
type LatencyStats struct {
	Mean             float64 `json:"mean"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	StdDev           float64 `json:"stddev"`
	ThroughputPerSec float64 `json:"throughput_per_sec"`
}

// LatencySummary bundles percentile and distribution views of latency.
type LatencySummary struct {
	Percentiles LatencyPercentiles `json:"percentiles"`
	Stats       LatencyStats       `json:"stats"`
}

// ComputeLatency sorts the recorded latencies and reads p50/p95/p99 with
// the nearest-rank rule (rank = ceil(p*n), 1-indexed, clipped to [1, n]),
// plus mean/min/max/stddev and throughput. A single record yields that
// record's latency for every percentile.
func ComputeLatency(records []PredictionRecord) (LatencySummary, error) {
	if len(records) == 0 {
		return LatencySummary{}, fmt.Errorf("latency analyzer: %w", ErrInsufficientData)
	}
	latencies := make([]float64, len(records))
	for i, r := range records {
		latencies[i] = r.LatencyMillis
	}
	sorted := sortedCopy(latencies)
	meanLatency := mean(sorted)
	return LatencySummary{
		Percentiles: LatencyPercentiles{
			P50: nearestRank(sorted, 0.50),
			P95: nearestRank(sorted, 0.95),
			P99: nearestRank(sorted, 0.99),
		},
		Stats: LatencyStats{
			Mean:             meanLatency,
			Min:              sorted[0],
			Max:              sorted[len(sorted)-1],
			StdDev:           stddev(sorted, meanLatency),
			ThroughputPerSec: ratio(1000, meanLatency),
		},
	}, nil
}
