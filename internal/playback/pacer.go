package playback

import "time"

// syncTick is the device clock unit assumed when pacing by clock deltas.
const syncTick = 10 * time.Millisecond

// Pacer chooses the wall-clock delay after each frame.
type Pacer struct {
	Rate time.Duration
	Sync bool
	Min  time.Duration
	Max  time.Duration
}

// Delay returns the clock-derived delay between two frames when Sync is on
// and the delay lies within [Min, Max], otherwise Rate.
func (p Pacer) Delay(last, now *int64) time.Duration {
	if p.Sync && last != nil && now != nil {
		d := time.Duration(*now-*last) * syncTick
		if d >= p.Min && d <= p.Max {
			return d
		}
	}
	return p.Rate
}
