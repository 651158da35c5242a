// Package units provides shared constants and conversions for the tick
// scales J2735 time counters are expressed in.
package units

// Scale names
const (
	MS = "ms"
	CS = "cs"
	DS = "ds"
)

// Scale is a counter resolution expressed as ticks per second.
type Scale struct {
	Name      string
	PerSecond int64
}

var (
	Milliseconds = Scale{Name: MS, PerSecond: 1000}
	Centiseconds = Scale{Name: CS, PerSecond: 100}
	Deciseconds  = Scale{Name: DS, PerSecond: 10}
)

// CounterScales lists the resolutions seen in the field, finest first.
var CounterScales = []Scale{Milliseconds, Centiseconds, Deciseconds}

// Seconds converts a tick count to seconds.
func (s Scale) Seconds(ticks int64) float64 {
	return float64(ticks) / float64(s.PerSecond)
}

// MinuteWrap is the tick count of one minute, the wrap period of a
// within-minute counter at this scale.
func (s Scale) MinuteWrap() int64 {
	return 60 * s.PerSecond
}

// WrapsWithinMinute reports whether v is small enough to be a counter at this
// scale that rolls over every minute.
func (s Scale) WrapsWithinMinute(v int64) bool {
	return v >= 0 && v <= s.MinuteWrap()
}

// WrapsWithinMinuteAny reports whether v fits a within-minute counter at any
// of the known scales.
func WrapsWithinMinuteAny(v int64) bool {
	for _, s := range CounterScales {
		if s.WrapsWithinMinute(v) {
			return true
		}
	}
	return false
}
