// Package journal records batch runs and the outcome of every file in a SQLite database,
// so a later run can report what changed or skip files that already rectified.
package journal

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nvr-ai/go-fiducial/batch"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
)

// Status of a recorded file.
type Status string

const (
	StatusRectified Status = "rectified"
	StatusDryRun    Status = "dry_run"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// DB wraps the SQLite connection. Writes are serialised.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open opens or creates the journal at path. ":memory:" gives a private in-memory journal.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "journal: open database")
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "journal: migrate database")
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		zoom REAL NOT NULL,
		anchor TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		input TEXT NOT NULL,
		output TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		failure TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		markers INTEGER DEFAULT 0,
		duration_ms REAL DEFAULT 0,
		recorded_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_input ON outcomes(input);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Run is one batch invocation. It implements batch.Recorder.
type Run struct {
	ID     int64
	Spec   rectify.OutputSpec
	DryRun bool
	db     *DB
}

// BeginRun starts a run rectifying onto spec.
func (db *DB) BeginRun(spec rectify.OutputSpec, dryRun bool) (*Run, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.Exec(`
		INSERT INTO runs (started_at, width, height, zoom, anchor, dry_run)
		VALUES (?, ?, ?, ?, ?, ?)
	`, time.Now().UTC(), spec.Width, spec.Height, spec.Zoom, anchorName(spec.Anchor), dryRun)
	if err != nil {
		return nil, errors.Wrap(err, "journal: insert run")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "journal: run id")
	}
	return &Run{ID: id, Spec: spec, DryRun: dryRun, db: db}, nil
}

// Record stores one file outcome.
func (r *Run) Record(o batch.Outcome) error {
	entry := entryFromOutcome(o, r.DryRun)

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, err := r.db.conn.Exec(`
		INSERT INTO outcomes (run_id, input, output, status, failure, message, markers, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, entry.Input, entry.Output, string(entry.Status), string(entry.Failure), entry.Message,
		entry.Markers, float64(entry.Duration.Microseconds())/1000, time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "journal: record %s", o.Input)
	}
	return nil
}

// Finish stores the final counts of the run.
func (r *Run) Finish(summary batch.Summary) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, err := r.db.conn.Exec(`
		UPDATE runs SET finished_at = ?, succeeded = ?, failed = ?, skipped = ? WHERE id = ?
	`, time.Now().UTC(), summary.Succeeded, summary.Failed, summary.Skipped, r.ID)
	if err != nil {
		return errors.Wrap(err, "journal: finish run")
	}
	return nil
}

// Entry is a recorded file outcome.
type Entry struct {
	RunID    int64
	Input    string
	Output   string
	Status   Status
	Failure  pipeline.FailureKind
	Message  string
	Markers  int
	Duration time.Duration
}

func entryFromOutcome(o batch.Outcome, dryRun bool) Entry {
	e := Entry{Input: o.Input, Output: o.Output, Duration: o.Duration}
	if o.Result != nil {
		e.Markers = len(o.Result.Markers)
	}
	switch {
	case o.Err == nil && dryRun:
		e.Status = StatusDryRun
	case o.Err == nil:
		e.Status = StatusRectified
	case batch.Cancelled(o.Err):
		e.Status = StatusSkipped
		e.Message = o.Err.Error()
	default:
		e.Status = StatusFailed
		e.Failure = pipeline.Classify(o.Err)
		e.Message = o.Err.Error()
	}
	return e
}

// Outcomes returns the entries of run id in recording order.
func (db *DB) Outcomes(runID int64) ([]Entry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT run_id, input, output, status, failure, message, markers, duration_ms
		FROM outcomes WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "journal: query outcomes")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			status     string
			failure    string
			durationMS float64
		)
		if err := rows.Scan(&e.RunID, &e.Input, &e.Output, &status, &failure, &e.Message, &e.Markers, &durationMS); err != nil {
			return nil, errors.Wrap(err, "journal: scan outcome")
		}
		e.Status = Status(status)
		e.Failure = pipeline.FailureKind(failure)
		e.Duration = time.Duration(durationMS * float64(time.Millisecond))
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "journal: read outcomes")
}

// Rectified reports whether input was written by an earlier run with the same output
// spec.
func (db *DB) Rectified(input string, spec rectify.OutputSpec) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM outcomes o JOIN runs r ON o.run_id = r.id
		WHERE o.input = ? AND o.status = ? AND r.width = ? AND r.height = ? AND r.zoom = ? AND r.anchor = ?
	`, input, string(StatusRectified), spec.Width, spec.Height, spec.Zoom, anchorName(spec.Anchor)).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "journal: query rectified")
	}
	return n > 0, nil
}

// Pending returns the files not yet rectified with spec, keeping their order.
func (db *DB) Pending(files []string, spec rectify.OutputSpec) ([]string, error) {
	pending := make([]string, 0, len(files))
	for _, f := range files {
		done, err := db.Rectified(f, spec)
		if err != nil {
			return nil, err
		}
		if !done {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

// anchorName stores the empty anchor under its effective name.
func anchorName(a rectify.Anchor) string {
	if a == "" {
		return string(rectify.AnchorCenter)
	}
	return string(a)
}
