// Package runlog keeps a history of bench runs in SQLite so that failing
// seeds can be listed and replayed.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/rvbench/bench"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Status is the outcome of a run.
type Status string

// Run outcomes.
const (
	StatusPass       Status = "pass"
	StatusDivergence Status = "divergence"
	StatusDesync     Status = "desync"
	StatusCanceled   Status = "canceled"
	StatusError      Status = "error"
)

// StatusOf classifies the error a run ended with.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusPass
	case errors.Is(err, bench.ErrDivergence):
		return StatusDivergence
	case errors.Is(err, bench.ErrDesync):
		return StatusDesync
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	}
	return StatusError
}

// Failed reports whether s is a verification failure worth replaying.
func (s Status) Failed() bool {
	return s == StatusDivergence || s == StatusDesync
}

// Run is one recorded bench run.
type Run struct {
	ID     uuid.UUID
	Bench  string
	Fault  string
	Seed   uint64
	Cycles uint64
	Rounds uint64
	Checks uint64
	Status Status
	Error  string

	// Config is the YAML of the configuration the run used.
	Config string

	StartedAt time.Time
}

// NewRun starts a run record with a fresh id.
func NewRun(benchName, fault string, seed uint64) *Run {
	return &Run{
		ID:        uuid.New(),
		Bench:     benchName,
		Fault:     fault,
		Seed:      seed,
		StartedAt: time.Now().UTC(),
	}
}

// Finish fills in the outcome of the run.
func (r *Run) Finish(cycles uint64, st bench.Stats, err error) {
	r.Cycles = cycles
	r.Rounds = st.Rounds
	r.Checks = st.Checks
	r.Status = StatusOf(err)
	if err != nil {
		r.Error = err.Error()
	}
}

// Log is a run history database.
type Log struct {
	db *sql.DB
}

// Open creates or opens the history at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to run log: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		schemaSQL,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize run log: %w", err)
		}
	}
	return &Log{db: db}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record stores r, replacing any run with the same id.
func (l *Log) Record(ctx context.Context, r *Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, bench, fault, seed, cycles, rounds, checks, status, error, config, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Bench, r.Fault,
		// SQLite integers are signed; the bits round-trip.
		int64(r.Seed), int64(r.Cycles), int64(r.Rounds), int64(r.Checks),
		string(r.Status), r.Error, r.Config,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

const selectRuns = `
	SELECT id, bench, fault, seed, cycles, rounds, checks, status, error, config, started_at
	FROM runs`

// Get returns the run with id.
func (l *Log) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	runs, err := l.query(ctx, selectRuns+" WHERE id = ?", id.String())
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return &runs[0], nil
}

// List returns the most recent runs first. A limit of zero lists all.
func (l *Log) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	return l.query(ctx, selectRuns+" ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
}

// Failures returns the diverged and desynchronized runs, most recent first.
func (l *Log) Failures(ctx context.Context) ([]Run, error) {
	return l.query(ctx, selectRuns+" WHERE status IN (?, ?) ORDER BY started_at DESC, rowid DESC",
		string(StatusDivergence), string(StatusDesync))
}

func (l *Log) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                            Run
			id, status, started          string
			seed, cycles, rounds, checks int64
		)
		if err := rows.Scan(&id, &r.Bench, &r.Fault, &seed, &cycles, &rounds, &checks,
			&status, &r.Error, &r.Config, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s start time: %w", id, err)
		}
		r.Seed, r.Cycles = uint64(seed), uint64(cycles)
		r.Rounds, r.Checks = uint64(rounds), uint64(checks)
		r.Status = Status(status)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
