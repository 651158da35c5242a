package timing

import (
	"math"
	"time"

	"github.com/banshee-data/spat.report/internal/units"
)

// clockScale is the unit assumed for the device clock when measuring the
// time elapsed between two frames.
var clockScale = units.Deciseconds

// CountdownState is the smoother's memory between frames for one observer.
// The zero value is the state before the first frame.
type CountdownState struct {
	LastPhaseEndRaw *int64
	Simulated       *float64
	LastNow         *int64
}

// Tick is what the smoother learns from one frame.
type Tick struct {
	Now         *int64
	PhaseEndRaw *int64
	Fresh       *float64      // resolver estimate for this frame
	Nominal     time.Duration // assumed frame interval when the device clock can't be used
}

// Transition names the branch Step took.
type Transition int

const (
	// Reset replaced the simulated value with the fresh estimate.
	Reset Transition = iota
	// Continued decremented the simulated value by the elapsed time.
	Continued
)

func (t Transition) String() string {
	if t == Continued {
		return "continued"
	}
	return "reset"
}

// Step advances the countdown by one frame. While the phase-end counter is
// unchanged the previous simulated value keeps ticking down, clamped at 0.
// Any change of the counter, or the lack of a previous value, snaps to the
// fresh estimate.
func Step(prev CountdownState, in Tick) (CountdownState, Transition) {
	next := CountdownState{
		LastPhaseEndRaw: copyInt(in.PhaseEndRaw),
		LastNow:         copyInt(in.Now),
	}

	if !equalInt(prev.LastPhaseEndRaw, in.PhaseEndRaw) || prev.Simulated == nil {
		next.Simulated = copyFloat(in.Fresh)
		return next, Reset
	}

	v := math.Max(0, *prev.Simulated-elapsed(prev.LastNow, in.Now, in.Nominal))
	next.Simulated = &v
	return next, Continued
}

// ObserveClock records the device clock of a frame that carried no
// observation for the tracked signal group.
func (s CountdownState) ObserveClock(now *int64) CountdownState {
	s.LastNow = copyInt(now)
	return s
}

// Remaining returns the simulated seconds remaining.
func (s CountdownState) Remaining() (float64, bool) {
	if s.Simulated == nil {
		return 0, false
	}
	return *s.Simulated, true
}

// elapsed is the device-clock delta in seconds, or the nominal interval when
// either reading is missing or the clock went backwards (counter rollover).
func elapsed(last, now *int64, nominal time.Duration) float64 {
	if last != nil && now != nil && *now >= *last {
		return clockScale.Seconds(*now - *last)
	}
	return nominal.Seconds()
}

func equalInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
