// internal/history/store.go
// Package history archives evaluation runs in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mwiater/foodbench/eval"
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one archived evaluation run. ReportJSON holds the full report so a
// run can be re-rendered without the model or dataset present.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Model       string
	Dataset     string
	RecordCount int
	Accuracy    float64
	MacroF1     float64
	ECE         float64
	P50         float64
	P95         float64
	P99         float64
	ReportJSON  string
}

// Report unmarshals the archived report.
func (r Run) Report() (*eval.EvaluationReport, error) {
	var report eval.EvaluationReport
	if err := json.Unmarshal([]byte(r.ReportJSON), &report); err != nil {
		return nil, fmt.Errorf("parse archived report %s: %w", r.ID, err)
	}
	return &report, nil
}

// Open initializes or connects to the history database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const runColumns = `id, created_at, model, dataset, record_count, accuracy, macro_f1, ece, p50_ms, p95_ms, p99_ms, report_json`

// Save archives one report. The report's run id is kept when set; otherwise
// a fresh uuid is assigned. The stored report bytes are never mutated after
// this point.
func (s *Store) Save(ctx context.Context, report *eval.EvaluationReport) (*Run, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}

	id := report.Run.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := report.Run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	// Archive a copy carrying the assigned id so the stored JSON is
	// self-describing; the caller's report is left untouched.
	stored := *report
	stored.Run.ID = id
	stored.Run.CreatedAt = createdAt
	payload, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, created_at, model, dataset, record_count,
            accuracy, macro_f1, ece, p50_ms, p95_ms, p99_ms, report_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		createdAt.UTC().Format(time.RFC3339Nano),
		report.Run.Model,
		report.Run.Dataset,
		report.Run.RecordCount,
		report.Accuracy,
		report.MacroF1,
		report.ECE,
		report.LatencyPercentiles.P50,
		report.LatencyPercentiles.P95,
		report.LatencyPercentiles.P99,
		string(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return s.GetByPrefix(ctx, id)
}

// List returns archived runs newest first. A limit of zero returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetByPrefix fetches a run by id prefix. Missing runs return nil; a prefix
// matching more than one run is an error.
func (s *Store) GetByPrefix(ctx context.Context, prefix string) (*Run, error) {
	if prefix == "" {
		return nil, errors.New("run id prefix is empty")
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ORDER BY created_at LIMIT 2`,
		prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

// Prune deletes all but the newest keep runs and reports how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?
        )`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run       Run
		createdAt string
	)
	if err := scanner.Scan(
		&run.ID,
		&createdAt,
		&run.Model,
		&run.Dataset,
		&run.RecordCount,
		&run.Accuracy,
		&run.MacroF1,
		&run.ECE,
		&run.P50,
		&run.P95,
		&run.P99,
		&run.ReportJSON,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp %q: %w", createdAt, err)
	}
	run.CreatedAt = parsed
	return &run, nil
}
