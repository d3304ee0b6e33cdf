// internal/inference/preprocess_test.go
package inference

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, width, height int, fill color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func TestPreprocessShapeAndNormalization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gray.png")
	writeTestPNG(t, path, 40, 40, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage error: %v", err)
	}

	edge := 14
	data := Preprocess(img, edge)
	if len(data) != 3*edge*edge {
		t.Fatalf("expected %d values, got %d", 3*edge*edge, len(data))
	}

	// 128/255 normalized against the per-channel ImageNet stats.
	gray := float32(128.0 * 257.0 / 65535.0)
	want := [3]float32{
		(gray - imagenetMean[0]) / imagenetStd[0],
		(gray - imagenetMean[1]) / imagenetStd[1],
		(gray - imagenetMean[2]) / imagenetStd[2],
	}
	plane := edge * edge
	for channel := 0; channel < 3; channel++ {
		for i := 0; i < plane; i++ {
			got := data[channel*plane+i]
			if math.Abs(float64(got-want[channel])) > 1e-3 {
				t.Fatalf("channel %d index %d: expected %v, got %v", channel, i, want[channel], got)
			}
		}
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	writeTestPNG(t, path, 33, 21, color.RGBA{R: 200, G: 40, B: 90, A: 255})

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage error: %v", err)
	}
	first := Preprocess(img, 14)
	second := Preprocess(img, 14)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected identical tensors, diverged at %d", i)
		}
	}
}

func TestPreprocessNonSquareAndUpscale(t *testing.T) {
	dir := t.TempDir()
	tall := filepath.Join(dir, "tall.png")
	writeTestPNG(t, tall, 10, 30, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	tiny := filepath.Join(dir, "tiny.png")
	writeTestPNG(t, tiny, 4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	for _, path := range []string{tall, tiny} {
		img, err := LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage error: %v", err)
		}
		data := Preprocess(img, 14)
		if len(data) != 3*14*14 {
			t.Fatalf("expected %d values for %s, got %d", 3*14*14, path, len(data))
		}
		for i, v := range data {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("non-finite value at %d for %s", i, path)
			}
		}
	}
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}

	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadImage(garbage); err == nil {
		t.Fatal("expected error for undecodable file")
	}
}
