// Package timing turns raw SPaT clock counters into seconds remaining and
// smooths that estimate between coarse telemetry updates.
package timing

import (
	"fmt"
	"math"

	"github.com/banshee-data/spat.report/internal/units"
)

// Mode selects how the Resolver interprets counters of unknown units.
type Mode string

const (
	// ModePrimary reads now as milliseconds and the phase end as deciseconds
	// within the minute, and always accepts the result.
	ModePrimary Mode = "primary"
	// ModeHypotheses ignores the primary pairing and searches every
	// wrap/scale hypothesis for a plausible short countdown.
	ModeHypotheses Mode = "hypotheses"
)

// ParseMode validates a mode name. The empty string selects ModePrimary.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePrimary:
		return ModePrimary, nil
	case ModeHypotheses:
		return ModeHypotheses, nil
	}
	return "", fmt.Errorf("unknown time resolution mode %q (valid: %s, %s)", s, ModePrimary, ModeHypotheses)
}

// Horizon is the longest countdown the resolver will produce.
const Horizon = 60.0

// Hypothesis pairs a counter wrap period with the unit the difference is
// counted in.
type Hypothesis struct {
	Wrap  int64
	Scale units.Scale
}

// Hypotheses are the wrap/scale pairings observed across encoders: per-minute
// counters at deci-, centi- and millisecond resolution, and a 16-bit
// millisecond rollover.
var Hypotheses = []Hypothesis{
	{Wrap: 600, Scale: units.Deciseconds},
	{Wrap: 6000, Scale: units.Centiseconds},
	{Wrap: 60000, Scale: units.Milliseconds},
	{Wrap: 65536, Scale: units.Milliseconds},
}

// Resolver estimates the seconds until a phase ends.
type Resolver struct {
	Mode Mode
}

// Resolve returns the seconds remaining between now and end. ok is false when
// either counter is absent.
func (r Resolver) Resolve(now, end *int64) (float64, bool) {
	if now == nil || end == nil {
		return 0, false
	}
	if r.Mode == ModeHypotheses {
		return ResolveHypotheses(*now, *end), true
	}
	return ResolvePrimary(*now, *end), true
}

// ResolvePrimary treats now as milliseconds-of-minute and end as
// deciseconds-of-minute. The result is always in [0, 60).
func ResolvePrimary(now, end int64) float64 {
	nowSec := floorMod(units.Milliseconds.Seconds(now), Horizon)
	endSec := floorMod(units.Deciseconds.Seconds(end), Horizon)
	return floorMod(endSec-nowSec, Horizon)
}

// ResolveHypotheses evaluates every Hypothesis on the raw difference and
// returns the smallest result inside [0, 60). When none qualifies the
// smallest result is folded into the horizon.
func ResolveHypotheses(now, end int64) float64 {
	diff := end - now
	best, bestInRange := math.Inf(1), math.Inf(1)
	for _, h := range Hypotheses {
		v := h.Scale.Seconds(floorModInt(diff, h.Wrap))
		best = math.Min(best, v)
		if v >= 0 && v < Horizon {
			bestInRange = math.Min(bestInRange, v)
		}
	}
	if !math.IsInf(bestInRange, 1) {
		return bestInRange
	}
	return floorMod(best, Horizon)
}

// floorMod is x mod m with the sign of m, kept strictly below m.
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	if r >= m {
		r = 0
	}
	return r
}

func floorModInt(x, m int64) int64 {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}
