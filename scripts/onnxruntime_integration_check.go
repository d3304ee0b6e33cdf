// scripts/onnxruntime_integration_check.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mwiater/foodbench/eval"
	"github.com/mwiater/foodbench/internal/appconfig"
	"github.com/mwiater/foodbench/internal/dataset"
	"github.com/mwiater/foodbench/internal/inference"
)

// Standalone probe for the local inference environment: verifies the ONNX
// model file, the runtime shared library, and one end-to-end prediction.
// Each check prints its findings and failures without stopping the rest.
func main() {
	configPath := flag.String("config", appconfig.DefaultConfigPath, "Path to config JSON")
	modelPath := flag.String("model", "", "Override model path")
	imagePath := flag.String("image", "", "Image to classify in the probe step")
	datasetDir := flag.String("dataset", "", "Override dataset directory for the probe step")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		cfg = appconfig.Config{}
	}

	model := *modelPath
	if model == "" {
		model = cfg.ModelPath
	}
	if model == "" {
		fmt.Fprintln(os.Stderr, "no model configured: pass -model or set modelPath in the config")
		os.Exit(1)
	}

	dir := *datasetDir
	if dir == "" {
		dir = cfg.DatasetDir
	}

	settings := cfg.EvalSettings()

	fmt.Printf("Target model: %s\n", model)
	fmt.Printf("Classes: %v\n\n", settings.Classes)

	checkModelFile(model)

	classifier := checkSessionLoad(model, settings.Classes)
	if classifier == nil {
		os.Exit(1)
	}
	defer classifier.Close()

	probe := *imagePath
	if probe == "" && dir != "" {
		if samples, err := dataset.Scan(dir, settings.Classes); err == nil && len(samples) > 0 {
			probe = samples[0].Path
		}
	}
	if probe == "" {
		fmt.Println("No probe image available: pass -image or configure datasetDir.")
		return
	}
	checkPrediction(classifier, probe, settings)
}

func checkModelFile(model string) {
	fmt.Println("== model file ==")
	info, err := os.Stat(model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "model file check failed: %v\n", err)
		return
	}
	fmt.Printf("Size: %.1f MB\n", float64(info.Size())/(1024*1024))

	metaPath := inference.MetadataPath(model)
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		fmt.Printf("Metadata sidecar: none (%s)\n\n", metaPath)
		return
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		fmt.Fprintf(os.Stderr, "metadata parse failed: %v\n", err)
		return
	}
	fmt.Printf("Metadata sidecar: %s\n", metaPath)
	for key, value := range meta {
		fmt.Printf("  %s: %v\n", key, value)
	}
	fmt.Println()
}

func checkSessionLoad(model string, classes []string) *inference.Classifier {
	fmt.Println("== session load ==")
	started := time.Now()
	classifier, err := inference.NewClassifier(model, classes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session load failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "Check that the onnxruntime shared library is installed and on the loader path.")
		return nil
	}
	fmt.Printf("Loaded in %s\n", time.Since(started).Round(time.Millisecond))
	fmt.Printf("Input size: %dx%d\n", classifier.ImageSize(), classifier.ImageSize())
	fmt.Printf("Classes: %v\n", classifier.Classes())
	fmt.Printf("Model size: %.1f MB\n", classifier.ModelSizeMB())

	started = time.Now()
	if err := classifier.Warmup(1); err != nil {
		fmt.Fprintf(os.Stderr, "warmup failed: %v\n", err)
		classifier.Close()
		return nil
	}
	fmt.Printf("Warmup pass: %s\n\n", time.Since(started).Round(time.Millisecond))
	return classifier
}

func checkPrediction(classifier *inference.Classifier, imagePath string, settings eval.Settings) {
	fmt.Println("== probe inference ==")
	fmt.Printf("Image: %s\n", imagePath)
	pred, err := inference.Predict(classifier, imagePath, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe inference failed: %v\n", err)
		return
	}
	fmt.Printf("Label: %s (confidence %.3f, %.1f ms)\n", pred.Label, pred.Confidence, pred.LatencyMillis)
	for class, prob := range pred.Probabilities {
		fmt.Printf("  %s: %.3f\n", class, prob)
	}
}
