package db

import (
	"context"
	"database/sql"
	"fmt"
)

// FrameRow is one presented frame of a run.
type FrameRow struct {
	RunID              string
	Index              int
	IntersectionID     string
	NowRaw             *int64
	PhaseEndRaw        *int64
	Event              string
	Color              string
	FreshRemaining     *float64
	SimulatedRemaining *float64
	Transition         string // empty for frames without the observer's signal group
	DelayMS            int64
}

// RecordFrame inserts one frame row.
func (db *DB) RecordFrame(ctx context.Context, f FrameRow) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO frames (run_id, frame_index, intersection_id, now_raw, phase_end_raw,
			event, color, fresh_remaining, simulated_remaining, transition, delay_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.Index, nullString(f.IntersectionID), nullInt64(f.NowRaw), nullInt64(f.PhaseEndRaw),
		nullString(f.Event), f.Color, nullFloat(f.FreshRemaining), nullFloat(f.SimulatedRemaining),
		nullString(f.Transition), f.DelayMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert frame %d of run %s: %w", f.Index, f.RunID, err)
	}
	return nil
}

// Frames returns the frames of a run in input order.
func (db *DB) Frames(ctx context.Context, runID string) ([]FrameRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, frame_index, intersection_id, now_raw, phase_end_raw, event, color,
			fresh_remaining, simulated_remaining, transition, delay_ms
		FROM frames WHERE run_id = ? ORDER BY frame_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameRow
	for rows.Next() {
		var (
			f                     FrameRow
			id, event, transition sql.NullString
			now, end              sql.NullInt64
			fresh, simulated      sql.NullFloat64
		)
		if err := rows.Scan(&f.RunID, &f.Index, &id, &now, &end, &event, &f.Color,
			&fresh, &simulated, &transition, &f.DelayMS); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.IntersectionID = id.String
		f.Event = event.String
		f.Transition = transition.String
		if now.Valid {
			f.NowRaw = &now.Int64
		}
		if end.Valid {
			f.PhaseEndRaw = &end.Int64
		}
		if fresh.Valid {
			f.FreshRemaining = &fresh.Float64
		}
		if simulated.Valid {
			f.SimulatedRemaining = &simulated.Float64
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
