// eval/metrics.go
package eval

import (
	"fmt"
	"sort"
)

// ClassMetrics captures correctness rollups for a single configured class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// TopKAccuracy is the fraction of records whose true class appears among
// the K highest-probability classes.
type TopKAccuracy struct {
	K        int     `json:"k"`
	Accuracy float64 `json:"accuracy"`
}

// MetricsSummary aggregates classification quality over a record sequence.
type MetricsSummary struct {
	Accuracy   float64                 `json:"accuracy"`
	PerClass   map[string]ClassMetrics `json:"per_class"`
	MacroF1    float64                 `json:"macro_f1"`
	WeightedF1 float64                 `json:"weighted_f1"`
	TopK       []TopKAccuracy          `json:"top_k_accuracy"`
}

// ComputeMetrics derives accuracy, per-class precision/recall/F1, macro and
// weighted F1, and top-k accuracy for every k up to the class count.
// Precision and recall are 0 when their denominator is 0, and F1 is 0 when
// precision+recall is 0. Macro F1 averages the configured classes only;
// unknown predictions count against recall but form no class of their own.
func ComputeMetrics(records []PredictionRecord, classes []string) (MetricsSummary, error) {
	if err := validateClasses(classes); err != nil {
		return MetricsSummary{}, err
	}
	if len(records) == 0 {
		return MetricsSummary{}, fmt.Errorf("metrics analyzer: %w", ErrInsufficientData)
	}

	truePositives := make(map[string]int, len(classes))
	falsePositives := make(map[string]int, len(classes))
	support := make(map[string]int, len(classes))
	correct := 0
	for _, r := range records {
		support[r.TrueClass]++
		if r.Correct() {
			correct++
			truePositives[r.TrueClass]++
			continue
		}
		if r.PredictedClass != ClassUnknown {
			falsePositives[r.PredictedClass]++
		}
	}

	perClass := make(map[string]ClassMetrics, len(classes))
	var f1Sum, weightedSum float64
	for _, c := range classes {
		tp := float64(truePositives[c])
		precision := ratio(tp, tp+float64(falsePositives[c]))
		recall := ratio(tp, float64(support[c]))
		f1 := ratio(2*precision*recall, precision+recall)
		perClass[c] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support[c],
		}
		f1Sum += f1
		weightedSum += f1 * float64(support[c])
	}

	return MetricsSummary{
		Accuracy:   ratio(float64(correct), float64(len(records))),
		PerClass:   perClass,
		MacroF1:    f1Sum / float64(len(classes)),
		WeightedF1: ratio(weightedSum, float64(len(records))),
		TopK:       computeTopK(records, classes),
	}, nil
}

// computeTopK ranks each record's probability vector (descending, ties by
// lexical class order) and counts how often the true class lands in the
// first k positions, for k = 1..len(classes).
func computeTopK(records []PredictionRecord, classes []string) []TopKAccuracy {
	hits := make([]int, len(classes))
	ranked := make([]string, len(classes))
	for _, r := range records {
		copy(ranked, classes)
		sort.Strings(ranked)
		sort.SliceStable(ranked, func(i, j int) bool {
			return r.Probabilities[ranked[i]] > r.Probabilities[ranked[j]]
		})
		for k, c := range ranked {
			if c == r.TrueClass {
				for ; k < len(classes); k++ {
					hits[k]++
				}
				break
			}
		}
	}
	out := make([]TopKAccuracy, len(classes))
	for i := range hits {
		out[i] = TopKAccuracy{
			K:        i + 1,
			Accuracy: ratio(float64(hits[i]), float64(len(records))),
		}
	}
	return out
}
