// Package catalog records conversion runs and the outcome of every
// recording in a SQLite database, so repeated batch conversions can be
// audited after the fact.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/xrmotion/internal/timeutil"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// Recording outcome statuses.
const (
	StatusConverted = "converted"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ErrNotFound reports a missing run.
var ErrNotFound = errors.New("not found")

// Catalog is a SQLite-backed store of conversion runs.
type Catalog struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the catalog database at path and applies
// pending migrations.
func Open(path string) (*Catalog, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an explicit clock for timestamps.
func OpenWithClock(path string, clock timeutil.Clock) (*Catalog, error) {
	// Connection-scoped pragmas go in the DSN so every pooled connection
	// gets them.
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	c := &Catalog{db: db, clock: clock}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Run is one invocation of the converter over one dataset.
type Run struct {
	RunID      string
	Dataset    string
	SourceRoot string
	OutputRoot string
	Format     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     string
	Converted  int
	Skipped    int
	Failed     int
}

// Outcome is the result of converting one recording.
type Outcome struct {
	RecordingID string
	RunID       string
	Name        string
	SourcePath  string
	OutputPath  string
	FrameCount  int
	DurationMS  float64
	Status      string
	Error       string
	CreatedAt   time.Time
}

// StartRun inserts a new running run and returns it.
func (c *Catalog) StartRun(dataset, sourceRoot, outputRoot, format string) (*Run, error) {
	r := &Run{
		RunID:      uuid.New().String(),
		Dataset:    dataset,
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
		Format:     format,
		StartedAt:  c.clock.Now(),
		Status:     RunRunning,
	}
	err := retryOnBusy(func() error {
		_, err := c.db.Exec(`
			INSERT INTO conversion_runs (run_id, dataset, source_root, output_root, format, started_at, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Dataset, r.SourceRoot, r.OutputRoot, r.Format, r.StartedAt.UnixNano(), r.Status,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// FinishRun stores the final status and counts of a run.
func (c *Catalog) FinishRun(runID, status string, converted, skipped, failed int) error {
	finished := c.clock.Now().UnixNano()
	return retryOnBusy(func() error {
		res, err := c.db.Exec(`
			UPDATE conversion_runs
			SET finished_at = ?, status = ?, converted = ?, skipped = ?, failed = ?
			WHERE run_id = ?`,
			finished, status, converted, skipped, failed, runID,
		)
		if err != nil {
			return fmt.Errorf("update run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil
	})
}

// RecordOutcome stores the outcome of one recording. RecordingID and
// CreatedAt are filled in when empty.
func (c *Catalog) RecordOutcome(o *Outcome) error {
	if o.RecordingID == "" {
		o.RecordingID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = c.clock.Now()
	}
	var outputPath, errText interface{}
	if o.OutputPath != "" {
		outputPath = o.OutputPath
	}
	if o.Error != "" {
		errText = o.Error
	}
	return retryOnBusy(func() error {
		_, err := c.db.Exec(`
			INSERT INTO converted_recordings (
				recording_id, run_id, name, source_path, output_path,
				frame_count, duration_ms, status, error, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.RecordingID, o.RunID, o.Name, o.SourcePath, outputPath,
			o.FrameCount, o.DurationMS, o.Status, errText, o.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}
		return nil
	})
}

// GetRun returns a run by ID.
func (c *Catalog) GetRun(runID string) (*Run, error) {
	row := c.db.QueryRow(`
		SELECT run_id, dataset, source_root, output_root, format,
		       started_at, finished_at, status, converted, skipped, failed
		FROM conversion_runs
		WHERE run_id = ?`, runID)

	var r Run
	var started int64
	var finished sql.NullInt64
	err := row.Scan(&r.RunID, &r.Dataset, &r.SourceRoot, &r.OutputRoot, &r.Format,
		&started, &finished, &r.Status, &r.Converted, &r.Skipped, &r.Failed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt = time.Unix(0, started)
	if finished.Valid {
		r.FinishedAt = time.Unix(0, finished.Int64)
	}
	return &r, nil
}

// ListOutcomes returns the outcomes of a run in the order they were recorded.
func (c *Catalog) ListOutcomes(runID string) ([]*Outcome, error) {
	rows, err := c.db.Query(`
		SELECT recording_id, run_id, name, source_path, output_path,
		       frame_count, duration_ms, status, error, created_at
		FROM converted_recordings
		WHERE run_id = ?
		ORDER BY created_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []*Outcome
	for rows.Next() {
		var o Outcome
		var outputPath, errText sql.NullString
		var created int64
		if err := rows.Scan(&o.RecordingID, &o.RunID, &o.Name, &o.SourcePath, &outputPath,
			&o.FrameCount, &o.DurationMS, &o.Status, &errText, &created); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.OutputPath = outputPath.String
		o.Error = errText.String
		o.CreatedAt = time.Unix(0, created)
		out = append(out, &o)
	}
	return out, rows.Err()
}

// retryOnBusy retries fn while SQLite reports the database as locked.
func retryOnBusy(fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(i+1) * 20 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
