// eval/html_test.go
package eval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateHTML(t *testing.T) {
	page, err := GenerateHTML(scenarioReport(t))
	if err != nil {
		t.Fatalf("GenerateHTML error: %v", err)
	}
	for _, want := range []string{
		"foodbench: Evaluation Report",
		`id="reliabilityChart"`,
		`id="confusionTable"`,
		`id="f1Chart"`,
		`id="latencyChart"`,
		`"confidence_bins"`,
		`"confusion_matrix"`,
		"chart.umd.min.js",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteHTML(path, scenarioReport(t)); err != nil {
		t.Fatalf("WriteHTML error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.HasPrefix(string(raw), "<!DOCTYPE html>") {
		t.Fatalf("dashboard file must start with a doctype")
	}
}
