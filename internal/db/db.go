// Package db records playback runs and their frames in SQLite for later
// analysis.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the database at path, applies the
// connection pragmas and migrates the schema to the latest version.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens the database without touching the schema.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// A single connection keeps in-memory databases shared across calls.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return &DB{sqlDB}, nil
}

// Run is one playback of one input for one lane.
type Run struct {
	RunID            string
	Source           string
	LaneID           int
	SignalGroup      *int
	IntersectionID   string
	IntersectionName string
	TimeResolution   string
	StartedAt        time.Time
	FinishedAt       *time.Time
	Presented        int
	Matched          int
}

// CreateRun inserts r with a fresh run id and returns the id. StartedAt
// defaults to now.
func (db *DB) CreateRun(ctx context.Context, r Run) (string, error) {
	r.RunID = uuid.NewString()
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (run_id, source, lane_id, signal_group, intersection_id,
			intersection_name, time_resolution, started_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Source, r.LaneID, nullInt(r.SignalGroup), r.IntersectionID,
		r.IntersectionName, r.TimeResolution, r.StartedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return r.RunID, nil
}

// FinishRun stamps the end time and final counters of a run.
func (db *DB) FinishRun(ctx context.Context, runID string, presented, matched int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE runs SET finished_unix_nanos = ?, presented = ?, matched = ?
		WHERE run_id = ?`,
		time.Now().UnixNano(), presented, matched, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, source, lane_id, signal_group, intersection_id, intersection_name,
	time_resolution, started_unix_nanos, finished_unix_nanos, presented, matched`

// Run returns one run by id.
func (db *DB) Run(ctx context.Context, runID string) (Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// Runs returns every run, newest first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r        Run
		sg       sql.NullInt64
		id, name sql.NullString
		started  int64
		finished sql.NullInt64
	)
	if err := s.Scan(&r.RunID, &r.Source, &r.LaneID, &sg, &id, &name,
		&r.TimeResolution, &started, &finished, &r.Presented, &r.Matched); err != nil {
		return Run{}, err
	}
	if sg.Valid {
		v := int(sg.Int64)
		r.SignalGroup = &v
	}
	r.IntersectionID = id.String
	r.IntersectionName = name.String
	r.StartedAt = time.Unix(0, started)
	if finished.Valid {
		t := time.Unix(0, finished.Int64)
		r.FinishedAt = &t
	}
	return r, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
