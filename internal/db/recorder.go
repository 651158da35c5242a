package db

import (
	"context"

	"github.com/banshee-data/spat.report/internal/playback"
)

// Recorder stores every frame of a playback session under one run.
type Recorder struct {
	ctx   context.Context
	db    *DB
	runID string
}

// NewRecorder creates the run row for s and returns an observer that
// records its frames. Frame inserts use ctx, so they stop once it is done.
func NewRecorder(ctx context.Context, db *DB, s *playback.Session, source string) (*Recorder, error) {
	g := s.Geometry()
	runID, err := db.CreateRun(ctx, Run{
		Source:           source,
		LaneID:           s.LaneID(),
		SignalGroup:      s.SignalGroup(),
		IntersectionID:   g.ID,
		IntersectionName: g.Name,
		TimeResolution:   string(s.Resolution()),
	})
	if err != nil {
		return nil, err
	}
	return &Recorder{ctx: ctx, db: db, runID: runID}, nil
}

// RunID is the id of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

func (r *Recorder) ObserveFrame(res playback.FrameResult) error {
	row := FrameRow{
		RunID:              r.runID,
		Index:              res.Index,
		IntersectionID:     res.Frame.IntersectionID,
		NowRaw:             res.Frame.Now,
		Color:              res.Card.Color.String(),
		FreshRemaining:     res.Fresh,
		SimulatedRemaining: res.Card.SecondsRemaining,
		DelayMS:            res.Delay.Milliseconds(),
	}
	if res.Observation != nil {
		row.PhaseEndRaw = res.Observation.PhaseEndRaw
		row.Event = res.Observation.EventName
		row.Transition = res.Transition.String()
	}
	return r.db.RecordFrame(r.ctx, row)
}

// Finish stamps the run with the session's final counts.
func (r *Recorder) Finish(ctx context.Context, stats playback.Stats) error {
	return r.db.FinishRun(ctx, r.runID, stats.Presented, stats.Matched)
}
