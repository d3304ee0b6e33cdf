// eval/record.go

// Package eval computes aggregate quality and performance statistics for a
// food image classifier. It consumes per-sample PredictionRecords and
// produces an EvaluationReport covering accuracy, per-class precision and
// recall, confusion structure, confidence calibration, and latency
// percentiles. Analyzers are pure functions over an immutable record slice
// and can be tested independently of each other.
package eval

import (
	"fmt"
	"math"
	"sort"
)

// ClassUnknown is the reserved predicted label for below-threshold
// predictions. It never appears in the configured class set and is never a
// true label.
const ClassUnknown = "unknown"

// Defaults for evaluation settings.
const (
	DefaultThreshold   = 0.70
	DefaultBins        = 10
	DefaultMiningDepth = 10
)

// probabilitySumTolerance bounds |sum(probabilities) - 1| for a valid record.
const probabilitySumTolerance = 1e-6

// DefaultClasses returns the classifier's label set.
func DefaultClasses() []string {
	return []string{"pizza", "steak", "sushi"}
}

// Settings carries the configuration an evaluation run needs: the closed
// class set, the confidence threshold below which the record producer
// relabels a prediction as unknown, and the calibration bin count.
type Settings struct {
	Classes     []string `json:"classes"`
	Threshold   float64  `json:"threshold"`
	Bins        int      `json:"bins"`
	MiningDepth int      `json:"mining_depth,omitempty"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Classes:     DefaultClasses(),
		Threshold:   DefaultThreshold,
		Bins:        DefaultBins,
		MiningDepth: DefaultMiningDepth,
	}
}

// Validate fails fast on unusable settings, before any computation runs.
func (s Settings) Validate() error {
	if err := validateClasses(s.Classes); err != nil {
		return err
	}
	if math.IsNaN(s.Threshold) || s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0, 1]", ErrConfiguration, s.Threshold)
	}
	if s.Bins < 1 {
		return fmt.Errorf("%w: bin count %d must be at least 1", ErrConfiguration, s.Bins)
	}
	if s.MiningDepth < 0 {
		return fmt.Errorf("%w: mining depth %d must not be negative", ErrConfiguration, s.MiningDepth)
	}
	return nil
}

func validateClasses(classes []string) error {
	if len(classes) == 0 {
		return fmt.Errorf("%w: class set is empty", ErrConfiguration)
	}
	seen := make(map[string]bool, len(classes))
	for _, c := range classes {
		if c == "" {
			return fmt.Errorf("%w: class name is empty", ErrConfiguration)
		}
		if c == ClassUnknown {
			return fmt.Errorf("%w: %q is reserved for below-threshold predictions", ErrConfiguration, ClassUnknown)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate class %q", ErrConfiguration, c)
		}
		seen[c] = true
	}
	return nil
}

// PredictionRecord is one classified sample: the ground-truth label, the
// label the classifier reported (possibly unknown), the full per-class
// probability vector, and the inference latency. Records are immutable
// once constructed and are validated at the construction boundary.
type PredictionRecord struct {
	Sample         string             `json:"sample,omitempty"`
	TrueClass      string             `json:"true_class"`
	PredictedClass string             `json:"predicted_class"`
	Probabilities  map[string]float64 `json:"probabilities"`
	LatencyMillis  float64            `json:"latency_ms"`
}

// NewRecord validates and builds a PredictionRecord with an explicit
// predicted label. The probability vector must contain exactly the
// configured classes, each value in [0, 1], summing to 1 within tolerance.
func NewRecord(trueClass, predictedClass string, probabilities map[string]float64, latencyMillis float64, classes []string) (PredictionRecord, error) {
	if err := validateClasses(classes); err != nil {
		return PredictionRecord{}, err
	}
	r := PredictionRecord{
		TrueClass:      trueClass,
		PredictedClass: predictedClass,
		Probabilities:  copyProbabilities(probabilities),
		LatencyMillis:  latencyMillis,
	}
	if err := r.validate(classes); err != nil {
		return PredictionRecord{}, err
	}
	return r, nil
}

// RecordFromProbabilities builds a record the way the inference step does:
// the predicted label is the highest-probability class, relabeled
// ClassUnknown when that probability falls below the threshold. Probability
// ties resolve to the lexically smallest class name.
func RecordFromProbabilities(sample, trueClass string, probabilities map[string]float64, latencyMillis, threshold float64, classes []string) (PredictionRecord, error) {
	if err := validateClasses(classes); err != nil {
		return PredictionRecord{}, err
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return PredictionRecord{}, fmt.Errorf("%w: threshold %v outside [0, 1]", ErrConfiguration, threshold)
	}
	predicted, confidence := argmax(probabilities)
	if confidence < threshold {
		predicted = ClassUnknown
	}
	r := PredictionRecord{
		Sample:         sample,
		TrueClass:      trueClass,
		PredictedClass: predicted,
		Probabilities:  copyProbabilities(probabilities),
		LatencyMillis:  latencyMillis,
	}
	if err := r.validate(classes); err != nil {
		return PredictionRecord{}, err
	}
	return r, nil
}

func (r PredictionRecord) validate(classes []string) error {
	configured := make(map[string]bool, len(classes))
	for _, c := range classes {
		configured[c] = true
	}
	if !configured[r.TrueClass] {
		return fmt.Errorf("%w: true class %q is not a configured class", ErrMalformedRecord, r.TrueClass)
	}
	if !configured[r.PredictedClass] && r.PredictedClass != ClassUnknown {
		return fmt.Errorf("%w: predicted class %q is not a configured class or %q", ErrMalformedRecord, r.PredictedClass, ClassUnknown)
	}
	if len(r.Probabilities) != len(classes) {
		return fmt.Errorf("%w: probability vector has %d entries, want %d", ErrMalformedRecord, len(r.Probabilities), len(classes))
	}
	sum := 0.0
	for _, c := range classes {
		p, ok := r.Probabilities[c]
		if !ok {
			return fmt.Errorf("%w: probability vector is missing class %q", ErrMalformedRecord, c)
		}
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: probability for %q is not finite", ErrMalformedRecord, c)
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: probability %v for %q outside [0, 1]", ErrMalformedRecord, p, c)
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilitySumTolerance {
		return fmt.Errorf("%w: probabilities sum to %.8f, want 1", ErrMalformedRecord, sum)
	}
	if math.IsNaN(r.LatencyMillis) || math.IsInf(r.LatencyMillis, 0) || r.LatencyMillis < 0 {
		return fmt.Errorf("%w: latency %v ms must be finite and non-negative", ErrMalformedRecord, r.LatencyMillis)
	}
	return nil
}

// Correct reports whether the predicted label matches the true label.
// Unknown predictions are never correct.
func (r PredictionRecord) Correct() bool {
	return r.PredictedClass == r.TrueClass
}

// Confidence is the probability the record's vector assigns to its
// predicted class. For unknown predictions it is the maximum probability,
// the value that failed the threshold.
func (r PredictionRecord) Confidence() float64 {
	if r.PredictedClass == ClassUnknown {
		_, confidence := argmax(r.Probabilities)
		return confidence
	}
	return r.Probabilities[r.PredictedClass]
}

// ArgMax returns the highest-probability class and its probability, ties
// resolved to the lexically smallest class name. An empty vector yields
// ("", 0).
func ArgMax(probabilities map[string]float64) (string, float64) {
	return argmax(probabilities)
}

func copyProbabilities(probabilities map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(probabilities))
	for c, p := range probabilities {
		out[c] = p
	}
	return out
}

// argmax returns the highest-probability class, ties resolved to the
// lexically smallest name so identical vectors always pick the same label.
func argmax(probabilities map[string]float64) (string, float64) {
	names := make([]string, 0, len(probabilities))
	for c := range probabilities {
		names = append(names, c)
	}
	sort.Strings(names)
	best := ""
	bestProbability := math.Inf(-1)
	for _, c := range names {
		if probabilities[c] > bestProbability {
			best = c
			bestProbability = probabilities[c]
		}
	}
	if best == "" {
		return "", 0
	}
	return best, bestProbability
}
