// eval/stats_test.go
package eval

import "testing"

func TestNearestRank(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if got := nearestRank(sorted, 0.50); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := nearestRank(sorted, 0.95); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := nearestRank(sorted, 0.99); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := nearestRank(sorted, 0); got != 10 {
		t.Fatalf("rank must clip to the first value, got %v", got)
	}
	if got := nearestRank(sorted, 1); got != 100 {
		t.Fatalf("expected the last value, got %v", got)
	}
	if got := nearestRank(nil, 0.5); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestMeanAndStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	m := mean(values)
	if !almost(m, 5) {
		t.Fatalf("expected mean 5, got %v", m)
	}
	// Sample variance of this classic set is 32/7.
	if got := stddev(values, m); !almost(got*got, 32.0/7.0) {
		t.Fatalf("unexpected stddev %v", got)
	}
	if got := stddev([]float64{3}, 3); got != 0 {
		t.Fatalf("expected 0 for a single value, got %v", got)
	}
	if got := mean(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestMinMaxRatio(t *testing.T) {
	values := []float64{9, 2, 5}
	if got := minValue(values); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
	if got := maxValue(values); got != 9 {
		t.Fatalf("expected 9, got %v", got)
	}
	if got := ratio(1, 0); got != 0 {
		t.Fatalf("zero denominator must yield 0, got %v", got)
	}
	if got := ratio(3, 4); !almost(got, 0.75) {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestBinIndexBoundaries(t *testing.T) {
	cases := []struct {
		confidence float64
		bins       int
		want       int
	}{
		{0, 10, 0},
		{0.05, 10, 0},
		{0.1, 10, 1},
		{0.3, 10, 3},
		{0.5, 10, 5},
		{0.999, 10, 9},
		{1, 10, 9},
		{0.5, 1, 0},
		{0.25, 4, 1},
	}
	for _, tc := range cases {
		if got := binIndex(tc.confidence, tc.bins); got != tc.want {
			t.Fatalf("binIndex(%v, %d): expected %d, got %d", tc.confidence, tc.bins, got, tc.want)
		}
	}
}
