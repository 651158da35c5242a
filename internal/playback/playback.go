// Package playback replays a recorded MAP/SPaT log for one observer lane,
// producing one signal card per SPaT frame.
package playback

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/banshee-data/spat.report/internal/j2735/mapdata"
	"github.com/banshee-data/spat.report/internal/j2735/records"
	"github.com/banshee-data/spat.report/internal/j2735/spat"
	"github.com/banshee-data/spat.report/internal/monitoring"
	"github.com/banshee-data/spat.report/internal/render"
	"github.com/banshee-data/spat.report/internal/signal"
	"github.com/banshee-data/spat.report/internal/timeutil"
	"github.com/banshee-data/spat.report/internal/timing"
)

// Fatal preconditions. ErrNoMatchingFrames is reported after the loop when no
// frame carried the observer's signal group.
var (
	ErrNoMapRecords     = errors.New("no MapData found in input")
	ErrLaneNotFound     = errors.New("lane not found in MAP")
	ErrNoSPaTRecords    = errors.New("no SPaT found in input")
	ErrNoMatchingFrames = errors.New("SPaT frames found, but none referenced the lane's signal group")
)

var log = monitoring.Logger("playback")

// Options configures a Session.
type Options struct {
	LaneID int

	// Rate is the nominal inter-frame delay, used for pacing and as the
	// smoother's fallback elapsed time. Zero means back-to-back frames and no
	// fallback decrement.
	Rate time.Duration
	// SyncTime paces frames by the device clock when the derived delay lies
	// within [SyncMin, SyncMax].
	SyncTime bool
	SyncMin  time.Duration
	SyncMax  time.Duration
	// Unpaced processes frames back to back.
	Unpaced bool

	MapScanner  records.Scanner
	SPaTScanner records.Scanner
	Resolution  timing.Mode
	Clock       timeutil.Clock
}

func (o Options) withDefaults() Options {
	if o.SyncMin == 0 {
		o.SyncMin = 10 * time.Millisecond
	}
	if o.SyncMax == 0 {
		o.SyncMax = 5 * time.Second
	}
	if o.MapScanner == (records.Scanner{}) {
		o.MapScanner = records.MapScanner()
	}
	if o.SPaTScanner == (records.Scanner{}) {
		o.SPaTScanner = records.SPaTScanner()
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	return o
}

// FrameResult is the outcome of processing one SPaT record.
type FrameResult struct {
	Index       int // ordinal of the SPaT record in the input
	Frame       spat.Frame
	Observation *spat.Observation // nil when the frame lacks the observer's signal group
	Fresh       *float64          // resolver estimate before smoothing
	State       timing.CountdownState
	Transition  timing.Transition
	Card        render.Card
	Delay       time.Duration
}

// Matched reports whether the frame carried the observer's signal group.
func (r FrameResult) Matched() bool { return r.Observation != nil }

// Observer is notified of every presented frame, in order.
type Observer interface {
	ObserveFrame(FrameResult) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(FrameResult) error

func (f ObserverFunc) ObserveFrame(r FrameResult) error { return f(r) }

// Stats counts what a run did with each SPaT record.
type Stats struct {
	Records   int `json:"records"`
	Malformed int `json:"malformed"`
	Empty     int `json:"empty"`
	Presented int `json:"presented"`
	Matched   int `json:"matched"`
}

// Session is one replay of a log for one lane. Fatal preconditions are
// checked by NewSession; Run does not re-check them.
type Session struct {
	opts        Options
	text        string
	geometry    *mapdata.Geometry
	signalGroup *int
	resolver    timing.Resolver
	pacer       Pacer
	presenter   render.Presenter
	observers   []Observer
}

// NewSession decodes the first valid MAP record in text, resolves the
// observer lane's signal group and checks that SPaT records exist.
func NewSession(text string, opts Options, presenter render.Presenter, observers ...Observer) (*Session, error) {
	opts = opts.withDefaults()
	if err := opts.MapScanner.Validate(); err != nil {
		return nil, fmt.Errorf("map scanner: %w", err)
	}
	if err := opts.SPaTScanner.Validate(); err != nil {
		return nil, fmt.Errorf("spat scanner: %w", err)
	}

	geometry, err := firstGeometry(opts.MapScanner, text)
	if err != nil {
		return nil, err
	}
	lane, ok := geometry.Lanes[opts.LaneID]
	if !ok {
		return nil, fmt.Errorf("%w: lane %d, known lanes: %v", ErrLaneNotFound, opts.LaneID, geometry.LaneIDs())
	}
	if lane.SignalGroup == nil {
		log.Warnf("lane %d has no signal group; every frame will show red", opts.LaneID)
	}

	if opts.SPaTScanner.Count(text) == 0 {
		return nil, ErrNoSPaTRecords
	}

	if presenter == nil {
		presenter = render.Discard
	}
	return &Session{
		opts:        opts,
		text:        text,
		geometry:    geometry,
		signalGroup: lane.SignalGroup,
		resolver:    timing.Resolver{Mode: opts.Resolution},
		pacer: Pacer{
			Rate: opts.Rate,
			Sync: opts.SyncTime,
			Min:  opts.SyncMin,
			Max:  opts.SyncMax,
		},
		presenter: presenter,
		observers: observers,
	}, nil
}

// firstGeometry decodes MAP records in order and returns the first that
// yields a geometry.
func firstGeometry(sc records.Scanner, text string) (*mapdata.Geometry, error) {
	seen := 0
	for rec := range sc.All(text) {
		seen++
		g, err := mapdata.Decode(rec)
		if err != nil {
			log.WithError(err).Debugf("skipping MAP record %d", seen)
			continue
		}
		return g, nil
	}
	if seen > 0 {
		return nil, fmt.Errorf("%w: %d MAP records, none decodable", ErrNoMapRecords, seen)
	}
	return nil, ErrNoMapRecords
}

// AddObserver registers o for every frame of subsequent runs.
func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// LaneID is the observer lane.
func (s *Session) LaneID() int { return s.opts.LaneID }

// Resolution is the resolver mode in effect.
func (s *Session) Resolution() timing.Mode {
	if s.resolver.Mode == "" {
		return timing.ModePrimary
	}
	return s.resolver.Mode
}

// Geometry returns the intersection geometry the session was built from.
func (s *Session) Geometry() *mapdata.Geometry { return s.geometry }

// SignalGroup returns the observer lane's signal group, nil when unmapped.
func (s *Session) SignalGroup() *int { return s.signalGroup }

// Run processes every SPaT record in order. It returns ErrNoMatchingFrames
// when no frame referenced the observer's signal group, and ctx.Err() if the
// context ends between frames.
func (s *Session) Run(ctx context.Context) (Stats, error) {
	var (
		stats   Stats
		state   timing.CountdownState
		prevNow *int64
	)

	for rec := range s.opts.SPaTScanner.All(s.text) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		index := stats.Records
		stats.Records++

		frame, err := spat.Decode(rec)
		if err != nil {
			stats.Malformed++
			log.WithError(err).Debugf("skipping SPaT record %d", index)
			continue
		}
		if frame.Empty() {
			stats.Empty++
			continue
		}

		res := FrameResult{Index: index, Frame: frame}
		state, res = s.step(state, res)
		res.State = state
		res.Delay = s.pacer.Delay(prevNow, frame.Now)
		prevNow = frame.Now

		s.logFrame(res)
		if err := s.presenter.Present(res.Card); err != nil {
			return stats, fmt.Errorf("present frame %d: %w", index, err)
		}
		stats.Presented++
		if res.Matched() {
			stats.Matched++
		}
		for _, o := range s.observers {
			if err := o.ObserveFrame(res); err != nil {
				return stats, fmt.Errorf("observe frame %d: %w", index, err)
			}
		}

		if !s.opts.Unpaced {
			if err := s.opts.Clock.Sleep(ctx, res.Delay); err != nil {
				return stats, err
			}
		}
	}

	log.WithFields(logrus.Fields{
		"records":   stats.Records,
		"malformed": stats.Malformed,
		"empty":     stats.Empty,
		"presented": stats.Presented,
		"matched":   stats.Matched,
	}).Info("playback finished")

	if stats.Matched == 0 {
		return stats, ErrNoMatchingFrames
	}
	return stats, nil
}

// step resolves and smooths the observer's countdown for one frame and
// builds its card. Frames without the observer's signal group show red with
// no countdown and only advance the device clock.
func (s *Session) step(state timing.CountdownState, res FrameResult) (timing.CountdownState, FrameResult) {
	res.Card = render.Card{
		IntersectionName: s.geometry.Name,
		IntersectionID:   s.geometry.ID,
		LaneID:           s.opts.LaneID,
		SignalGroup:      s.signalGroup,
		Color:            signal.Red,
	}
	if res.Card.IntersectionID == "" {
		res.Card.IntersectionID = res.Frame.IntersectionID
	}

	var obs spat.Observation
	ok := false
	if s.signalGroup != nil {
		obs, ok = res.Frame.Lookup(*s.signalGroup)
	}
	if !ok {
		return state.ObserveClock(res.Frame.Now), res
	}

	res.Observation = &obs
	if v, ok := s.resolver.Resolve(res.Frame.Now, obs.PhaseEndRaw); ok {
		res.Fresh = &v
	}
	state, res.Transition = timing.Step(state, timing.Tick{
		Now:         res.Frame.Now,
		PhaseEndRaw: obs.PhaseEndRaw,
		Fresh:       res.Fresh,
		Nominal:     s.opts.Rate,
	})
	res.Card.Color = signal.ColorFor(obs.EventName)
	if v, ok := state.Remaining(); ok {
		res.Card.SecondsRemaining = &v
	}
	return state, res
}

func (s *Session) logFrame(res FrameResult) {
	if !log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	fields := logrus.Fields{
		"frame": res.Index,
		"now":   fmtInt(res.Frame.Now),
		"color": res.Card.Color.String(),
	}
	if res.Observation != nil {
		fields["sg"] = res.Observation.SignalGroup
		fields["event"] = res.Observation.EventName
		fields["phase_end"] = fmtInt(res.Observation.PhaseEndRaw)
		fields["transition"] = res.Transition.String()
	}
	if res.Card.SecondsRemaining != nil {
		fields["remaining"] = fmt.Sprintf("%.1f", *res.Card.SecondsRemaining)
	}
	log.WithFields(fields).Debug("frame")
}

func fmtInt(p *int64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatInt(*p, 10)
}
