// internal/inference/runner.go
package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwiater/foodbench/eval"
	"github.com/mwiater/foodbench/internal/dataset"
)

// Engine produces class probabilities for one preprocessed image. It is
// satisfied by *Classifier and by test fakes.
type Engine interface {
	Classify(input []float32) (map[string]float64, float64, error)
	Warmup(n int) error
	ImageSize() int
}

// ProgressEvent reports one completed sample during a run.
type ProgressEvent struct {
	Done      int
	Total     int
	Correct   int
	Sample    string
	Predicted string
}

// Prediction is a single classified image outside any labeled run.
type Prediction struct {
	Probabilities map[string]float64
	Label         string
	ArgMax        string
	Confidence    float64
	LatencyMillis float64
}

// Runner fans images out to a worker pool and collects prediction records
// in dataset scan order regardless of completion order.
type Runner struct {
	engine     Engine
	settings   eval.Settings
	workers    int
	warmupRuns int

	// OnProgress, when set, is called after each completed sample.
	// Calls are serialized.
	OnProgress func(ProgressEvent)
}

// NewRunner validates the settings and builds a runner with the given
// worker count; counts below one collapse to a single worker.
func NewRunner(engine Engine, settings eval.Settings, workers, warmupRuns int) (*Runner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		engine:     engine,
		settings:   settings,
		workers:    workers,
		warmupRuns: warmupRuns,
	}, nil
}

// Evaluate classifies every sample and returns one record per sample in
// input order. Warmup passes run first and never enter the records. The
// first failure cancels outstanding work.
func (r *Runner) Evaluate(ctx context.Context, samples []dataset.Sample) ([]eval.PredictionRecord, error) {
	if len(samples) == 0 {
		return nil, eval.ErrInsufficientData
	}
	if err := r.engine.Warmup(r.warmupRuns); err != nil {
		return nil, fmt.Errorf("warmup: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	records := make([]eval.PredictionRecord, len(samples))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     int
		correct  int
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			record, err := r.classifySample(samples[idx])
			if err != nil {
				fail(err)
				return
			}
			records[idx] = record

			mu.Lock()
			done++
			if record.Correct() {
				correct++
			}
			if r.OnProgress != nil {
				r.OnProgress(ProgressEvent{
					Done:      done,
					Total:     len(samples),
					Correct:   correct,
					Sample:    record.Sample,
					Predicted: record.PredictedClass,
				})
			}
			mu.Unlock()
		}
	}

	wg.Add(r.workers)
	for w := 0; w < r.workers; w++ {
		go worker()
	}

	go func() {
		defer close(jobs)
		for idx := range samples {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Runner) classifySample(sample dataset.Sample) (eval.PredictionRecord, error) {
	img, err := LoadImage(sample.Path)
	if err != nil {
		return eval.PredictionRecord{}, err
	}
	input := Preprocess(img, r.engine.ImageSize())
	probs, latency, err := r.engine.Classify(input)
	if err != nil {
		return eval.PredictionRecord{}, fmt.Errorf("classify %s: %w", sample.Path, err)
	}
	record, err := eval.RecordFromProbabilities(sample.Path, sample.TrueClass, probs, latency, r.settings.Threshold, r.settings.Classes)
	if err != nil {
		return eval.PredictionRecord{}, fmt.Errorf("record for %s: %w", sample.Path, err)
	}
	return record, nil
}

// Predict classifies a single image for the one-shot CLI path, applying the
// same threshold relabel rule the batch runner uses.
func Predict(engine Engine, path string, settings eval.Settings) (Prediction, error) {
	if err := settings.Validate(); err != nil {
		return Prediction{}, err
	}
	img, err := LoadImage(path)
	if err != nil {
		return Prediction{}, err
	}
	input := Preprocess(img, engine.ImageSize())
	probs, latency, err := engine.Classify(input)
	if err != nil {
		return Prediction{}, fmt.Errorf("classify %s: %w", path, err)
	}

	argMax, confidence := eval.ArgMax(probs)
	label := argMax
	if confidence < settings.Threshold {
		label = eval.ClassUnknown
	}
	return Prediction{
		Probabilities: probs,
		Label:         label,
		ArgMax:        argMax,
		Confidence:    confidence,
		LatencyMillis: latency,
	}, nil
}
