// Package report summarises a playback run and renders its countdown as
// charts.
package report

import (
	"sync"

	"github.com/banshee-data/spat.report/internal/playback"
	"github.com/banshee-data/spat.report/internal/timing"
)

// Sample is the per-frame data kept for reporting.
type Sample struct {
	Index      int      `json:"index"`
	Matched    bool     `json:"matched"`
	Color      string   `json:"color"`
	Fresh      *float64 `json:"fresh,omitempty"`
	Smoothed   *float64 `json:"smoothed,omitempty"`
	Transition string   `json:"transition,omitempty"`
	// Correction is fresh minus the previously shown countdown, set on
	// resets that replaced an existing countdown.
	Correction *float64 `json:"correction,omitempty"`
}

// Collector is a playback.Observer that keeps one Sample per frame.
type Collector struct {
	mu      sync.Mutex
	samples []Sample
	last    *float64
}

func (c *Collector) ObserveFrame(res playback.FrameResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Sample{
		Index:    res.Index,
		Matched:  res.Matched(),
		Color:    res.Card.Color.String(),
		Fresh:    res.Fresh,
		Smoothed: res.Card.SecondsRemaining,
	}
	if s.Matched {
		s.Transition = res.Transition.String()
		if res.Transition == timing.Reset && c.last != nil && res.Fresh != nil {
			v := *res.Fresh - *c.last
			s.Correction = &v
		}
		c.last = res.Card.SecondsRemaining
	}
	c.samples = append(c.samples, s)
	return nil
}

// Samples returns a copy of the collected samples in frame order.
func (c *Collector) Samples() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}
