// eval/confusion.go
package eval

import (
	"fmt"
	"sort"
)

// ConfusionPair names the most frequent misprediction for one true class.
type ConfusionPair struct {
	TrueClass      string `json:"true_class"`
	PredictedClass string `json:"predicted_class"`
	Count          int    `json:"count"`
}

// ConfusionSummary holds the full count matrix plus derived views. Rows are
// the configured classes in their configured order; the predicted axis adds
// a trailing unknown column for below-threshold predictions. Every cell is
// present even when zero so a heatmap can render the grid directly.
type ConfusionSummary struct {
	Classes         []string                      `json:"classes"`
	PredictedLabels []string                      `json:"predicted_labels"`
	Matrix          map[string]map[string]int     `json:"matrix"`
	Normalized      map[string]map[string]float64 `json:"normalized"`
	TopConfusions   []ConfusionPair               `json:"top_confusions"`
	Total           int                           `json:"total"`
}

// ComputeConfusion builds the (true x predicted) count matrix, its
// row-normalized counterpart, and the top confusion per true class. The top
// confusion is the highest-count off-diagonal cell in a row; ties resolve
// to the lexically smallest predicted label, and rows whose off-diagonal
// cells are all zero contribute no entry.
func ComputeConfusion(records []PredictionRecord, classes []string) (ConfusionSummary, error) {
	if err := validateClasses(classes); err != nil {
		return ConfusionSummary{}, err
	}
	if len(records) == 0 {
		return ConfusionSummary{}, fmt.Errorf("confusion analyzer: %w", ErrInsufficientData)
	}

	predictedLabels := make([]string, 0, len(classes)+1)
	predictedLabels = append(predictedLabels, classes...)
	predictedLabels = append(predictedLabels, ClassUnknown)

	matrix := make(map[string]map[string]int, len(classes))
	for _, t := range classes {
		row := make(map[string]int, len(predictedLabels))
		for _, p := range predictedLabels {
			row[p] = 0
		}
		matrix[t] = row
	}
	for _, r := range records {
		matrix[r.TrueClass][r.PredictedClass]++
	}

	normalized := make(map[string]map[string]float64, len(classes))
	for _, t := range classes {
		row := make(map[string]float64, len(predictedLabels))
		rowTotal := 0
		for _, p := range predictedLabels {
			rowTotal += matrix[t][p]
		}
		for _, p := range predictedLabels {
			row[p] = ratio(float64(matrix[t][p]), float64(rowTotal))
		}
		normalized[t] = row
	}

	// Scan predicted labels in lexical order so an equal-count tie lands on
	// the lexically smallest label.
	tieOrder := make([]string, len(predictedLabels))
	copy(tieOrder, predictedLabels)
	sort.Strings(tieOrder)

	var topConfusions []ConfusionPair
	for _, t := range classes {
		best := ConfusionPair{TrueClass: t}
		for _, p := range tieOrder {
			if p == t {
				continue
			}
			if matrix[t][p] > best.Count {
				best.PredictedClass = p
				best.Count = matrix[t][p]
			}
		}
		if best.Count > 0 {
			topConfusions = append(topConfusions, best)
		}
	}

	return ConfusionSummary{
		Classes:         append([]string(nil), classes...),
		PredictedLabels: predictedLabels,
		Matrix:          matrix,
		Normalized:      normalized,
		TopConfusions:   topConfusions,
		Total:           len(records),
	}, nil
}
