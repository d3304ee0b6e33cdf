// eval/jsonl.go
package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchema is the shape every line of a records file must satisfy
// before record-level validation runs. Class membership and the
// sum-to-one rule are checked afterwards by NewRecord, which knows the
// configured class set.
var recordSchema = map[string]any{
	"type":     "object",
	"required": []string{"true_class", "predicted_class", "probabilities", "latency_ms"},
	"properties": map[string]any{
		"sample":          map[string]any{"type": "string"},
		"true_class":      map[string]any{"type": "string", "minLength": 1},
		"predicted_class": map[string]any{"type": "string", "minLength": 1},
		"probabilities": map[string]any{
			"type":                 "object",
			"minProperties":        1,
			"additionalProperties": map[string]any{"type": "number"},
		},
		"latency_ms": map[string]any{"type": "number"},
	},
	"additionalProperties": false,
}

// LoadRecords reads a JSONL records file, validating every line against
// the record schema and then against the configured class set. Blank lines
// are skipped; any failing line aborts the load with its line number so a
// malformed record never enters an aggregate.
func LoadRecords(path string, classes []string) ([]PredictionRecord, error) {
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open records file %s: %w", path, err)
	}
	defer file.Close()

	schemaLoader := gojsonschema.NewGoLoader(recordSchema)
	var records []PredictionRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		record, err := parseRecordLine(schemaLoader, []byte(line), classes)
		if err != nil {
			return nil, fmt.Errorf("records file %s line %d: %w", path, lineNumber, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read records file %s: %w", path, err)
	}
	return records, nil
}

func parseRecordLine(schemaLoader gojsonschema.JSONLoader, line []byte, classes []string) (PredictionRecord, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(line))
	if err != nil {
		return PredictionRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return PredictionRecord{}, fmt.Errorf("%w: %s", ErrMalformedRecord, strings.Join(details, "; "))
	}
	var raw PredictionRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return PredictionRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	record, err := NewRecord(raw.TrueClass, raw.PredictedClass, raw.Probabilities, raw.LatencyMillis, classes)
	if err != nil {
		return PredictionRecord{}, err
	}
	record.Sample = raw.Sample
	return record, nil
}

// WriteRecords appends records to a JSONL file, one object per line,
// creating the file when missing.
func WriteRecords(path string, records []PredictionRecord) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("unable to open records file %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("unable to write record to %s: %w", path, err)
		}
	}
	return nil
}
