// internal/inference/classifier.go
// Package inference runs an exported image classifier over food photos and
// turns its outputs into prediction records.
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

const defaultImageSize = 224

// Metadata describes the exported model: tensor shapes, output class order,
// and the square input edge the preprocessor must produce.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// Classifier wraps one ONNX session. The session reuses a single tensor
// pair, so Classify serializes access; preprocessing stays concurrent.
type Classifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	meta         Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	modelPath    string
}

// MetadataPath returns the JSON sidecar path for a model file.
func MetadataPath(modelPath string) string {
	ext := filepath.Ext(modelPath)
	return strings.TrimSuffix(modelPath, ext) + ".json"
}

// NewClassifier loads the model at modelPath. A JSON sidecar next to the
// model overrides shapes and class order; without one, metadata is derived
// from the configured classes in sorted order, matching how labeled
// training folders are enumerated.
func NewClassifier(modelPath string, classes []string) (*Classifier, error) {
	meta, err := loadMetadata(modelPath, classes)
	if err != nil {
		return nil, err
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("create onnx session for %s: %w", modelPath, err)
	}

	return &Classifier{
		session:      session,
		meta:         meta,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		modelPath:    modelPath,
	}, nil
}

// Classify runs one preprocessed image through the session and returns the
// per-class probability map plus inference wall time in milliseconds.
func (c *Classifier) Classify(input []float32) (map[string]float64, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.inputTensor.GetData()
	if len(input) != len(data) {
		return nil, 0, fmt.Errorf("expected %d input values, got %d", len(data), len(input))
	}
	copy(data, input)

	start := time.Now()
	if err := c.session.Run(); err != nil {
		return nil, 0, fmt.Errorf("inference failed: %w", err)
	}
	latency := float64(time.Since(start).Microseconds()) / 1000.0

	output := c.outputTensor.GetData()
	if len(output) < len(c.meta.Classes) {
		return nil, 0, fmt.Errorf("expected %d outputs, got %d", len(c.meta.Classes), len(output))
	}
	raw := make([]float32, len(c.meta.Classes))
	copy(raw, output[:len(c.meta.Classes)])
	probs := distribution(raw)

	result := make(map[string]float64, len(c.meta.Classes))
	for i, class := range c.meta.Classes {
		result[class] = probs[i]
	}
	return result, latency, nil
}

// Warmup runs n inferences on a zero tensor so session initialization cost
// never lands in recorded latencies.
func (c *Classifier) Warmup(n int) error {
	if n <= 0 {
		return nil
	}
	blank := make([]float32, len(c.inputTensor.GetData()))
	for i := 0; i < n; i++ {
		if _, _, err := c.Classify(blank); err != nil {
			return fmt.Errorf("warmup run %d: %w", i+1, err)
		}
	}
	return nil
}

// ImageSize is the square input edge the model expects.
func (c *Classifier) ImageSize() int {
	return c.meta.ImageSize
}

// Classes returns the model's output class order.
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.meta.Classes...)
}

// ModelSizeMB reports the on-disk model size in megabytes.
func (c *Classifier) ModelSizeMB() float64 {
	info, err := os.Stat(c.modelPath)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}

// Close releases the session, its tensors, and the ONNX environment.
func (c *Classifier) Close() {
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	ort.DestroyEnvironment()
}

func loadMetadata(modelPath string, classes []string) (Metadata, error) {
	if len(classes) == 0 {
		return Metadata{}, errors.New("inference: class set is empty")
	}
	ordered := append([]string(nil), classes...)
	sort.Strings(ordered)

	meta := Metadata{
		InputShape:  []int64{1, 3, defaultImageSize, defaultImageSize},
		OutputShape: []int64{1, int64(len(ordered))},
		Classes:     ordered,
		ImageSize:   defaultImageSize,
	}

	sidecar := MetadataPath(modelPath)
	data, err := os.ReadFile(sidecar)
	if errors.Is(err, fs.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("read model metadata %s: %w", sidecar, err)
	}

	var side Metadata
	if err := json.Unmarshal(data, &side); err != nil {
		return Metadata{}, fmt.Errorf("parse model metadata %s: %w", sidecar, err)
	}
	if len(side.Classes) > 0 {
		if err := checkClasses(side.Classes, classes); err != nil {
			return Metadata{}, fmt.Errorf("model metadata %s: %w", sidecar, err)
		}
		meta.Classes = side.Classes
	}
	if side.ImageSize > 0 {
		meta.ImageSize = side.ImageSize
		meta.InputShape = []int64{1, 3, int64(side.ImageSize), int64(side.ImageSize)}
	}
	if len(side.InputShape) > 0 {
		meta.InputShape = side.InputShape
	}
	if len(side.OutputShape) > 0 {
		meta.OutputShape = side.OutputShape
	} else {
		meta.OutputShape = []int64{1, int64(len(meta.Classes))}
	}
	return meta, nil
}

// checkClasses requires the model's class set to equal the configured set;
// order may differ since the sidecar defines the output order.
func checkClasses(got, want []string) error {
	mismatch := fmt.Errorf("model classes %v do not match configured classes %v", got, want)
	if len(got) != len(want) {
		return mismatch
	}
	remaining := make(map[string]bool, len(want))
	for _, c := range want {
		remaining[c] = true
	}
	for _, c := range got {
		if !remaining[c] {
			return mismatch
		}
		delete(remaining, c)
	}
	return nil
}

// distribution converts raw model outputs to probabilities. Heads exporting
// logits get a softmax; heads already emitting probabilities are only
// renormalized against float32 rounding.
func distribution(raw []float32) []float64 {
	if len(raw) == 0 {
		return nil
	}
	values := make([]float64, len(raw))
	likeProbs := true
	sum := 0.0
	for i, v := range raw {
		f := float64(v)
		values[i] = f
		sum += f
		if f < 0 || f > 1 {
			likeProbs = false
		}
	}
	if !likeProbs || math.Abs(sum-1) > 1e-3 {
		values = softmax(values)
		sum = 0
		for _, v := range values {
			sum += v
		}
	}
	for i := range values {
		values[i] /= sum
	}
	return values
}

func softmax(values []float64) []float64 {
	maxVal := values[0]
	for _, v := range values[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		out[i] = math.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
