// internal/appconfig/appconfig_test.go
package appconfig

import (
	"errors"
	"os"
	"testing"

	"github.com/mwiater/foodbench/eval"
)

// TestLoad tests the Load function to ensure it correctly handles various
// scenarios, including valid and invalid configurations. It verifies that a
// valid configuration file is loaded without error, while files with invalid
// JSON, invalid evaluation settings, or that are nonexistent result in an
// appropriate error. This test uses temporary files to simulate different
// configuration scenarios and asserts that the function behaves as expected
// in each case.
func TestLoad(t *testing.T) {
	validConfig := `{
        "modelPath": "models/food.onnx",
        "datasetDir": "data/test",
        "threshold": 0.8,
        "bins": 5
    }`
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(validConfig)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.ModelPath != "models/food.onnx" {
		t.Fatalf("expected model path carried through, got %q", cfg.ModelPath)
	}

	settings := cfg.EvalSettings()
	if settings.Threshold != 0.8 {
		t.Fatalf("expected threshold 0.8, got %v", settings.Threshold)
	}
	if settings.Bins != 5 {
		t.Fatalf("expected 5 bins, got %d", settings.Bins)
	}
	if len(settings.Classes) != 3 {
		t.Fatalf("expected default classes, got %v", settings.Classes)
	}

	if cfg.WarmupCount() != 3 {
		t.Fatalf("expected default warmup count of 3, got %d", cfg.WarmupCount())
	}

	if cfg.ShuffleSeed() != 42 {
		t.Fatalf("expected default shuffle seed of 42, got %d", cfg.ShuffleSeed())
	}

	if cfg.LogFilePath() != "foodbench.log" {
		t.Fatalf("expected default log file, got %q", cfg.LogFilePath())
	}

	if cfg.HistoryDBPath() != "foodbench.db" {
		t.Fatalf("expected default history path, got %q", cfg.HistoryDBPath())
	}

	invalidJSON := `{ "classes": [`
	tmpfile2, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile2.Name())
	if _, err := tmpfile2.Write([]byte(invalidJSON)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile2.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile2.Name()); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	badThreshold := `{ "threshold": 1.5 }`
	tmpfile3, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile3.Name())
	if _, err := tmpfile3.Write([]byte(badThreshold)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile3.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile3.Name()); !errors.Is(err, eval.ErrConfiguration) {
		t.Fatalf("Load() with bad threshold should fail with configuration error, got %v", err)
	}

	if _, err := Load("nonexistent.json"); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestWorkerAndSampleDefaults(t *testing.T) {
	var cfg Config
	if cfg.WorkerCount() <= 0 {
		t.Fatalf("expected positive default worker count, got %d", cfg.WorkerCount())
	}
	if cfg.SampleCap() != 0 {
		t.Fatalf("expected uncapped sample default, got %d", cfg.SampleCap())
	}

	cfg.Workers = 2
	cfg.SampleLimit = -5
	cfg.WarmupRuns = -1
	if cfg.WorkerCount() != 2 {
		t.Fatalf("expected 2 workers, got %d", cfg.WorkerCount())
	}
	if cfg.SampleCap() != 0 {
		t.Fatalf("expected negative sample limit treated as uncapped, got %d", cfg.SampleCap())
	}
	if cfg.WarmupCount() != 0 {
		t.Fatalf("expected negative warmup treated as zero, got %d", cfg.WarmupCount())
	}
}

func TestApplyEvalProfile(t *testing.T) {
	cfg := Config{Profile: "quick", Bins: 12}
	if err := ApplyEvalProfile(&cfg); err != nil {
		t.Fatalf("ApplyEvalProfile error: %v", err)
	}
	if cfg.Profile != string(ProfileSmoke) {
		t.Fatalf("expected alias normalized to smoke, got %q", cfg.Profile)
	}
	if cfg.Bins != 12 {
		t.Fatalf("expected explicit bins to win over profile, got %d", cfg.Bins)
	}
	if cfg.SampleLimit != 30 {
		t.Fatalf("expected smoke sample cap of 30, got %d", cfg.SampleLimit)
	}
	if cfg.WarmupRuns != 1 {
		t.Fatalf("expected smoke warmup of 1, got %d", cfg.WarmupRuns)
	}

	strict := Config{Profile: "strict"}
	if err := ApplyEvalProfile(&strict); err != nil {
		t.Fatalf("ApplyEvalProfile error: %v", err)
	}
	if strict.Threshold != 0.90 {
		t.Fatalf("expected strict threshold 0.90, got %v", strict.Threshold)
	}

	unknown := Config{Profile: "turbo"}
	if err := ApplyEvalProfile(&unknown); err == nil {
		t.Fatal("expected error for unknown profile")
	}

	empty := Config{Threshold: 0.6}
	if err := ApplyEvalProfile(&empty); err != nil {
		t.Fatalf("ApplyEvalProfile error: %v", err)
	}
	if empty.Threshold != 0.6 || empty.Bins != 0 {
		t.Fatalf("expected no profile to leave config untouched, got %+v", empty)
	}
}

func TestParamsForProfileFallsBackToStandard(t *testing.T) {
	params := ParamsForProfile("nonsense")
	if params.Threshold == nil || *params.Threshold != eval.DefaultThreshold {
		t.Fatalf("expected standard threshold fallback, got %+v", params.Threshold)
	}
	if params.Bins == nil || *params.Bins != eval.DefaultBins {
		t.Fatalf("expected standard bins fallback, got %+v", params.Bins)
	}
}
