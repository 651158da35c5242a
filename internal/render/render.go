// Package render presents the per-frame signal card for the observer lane.
package render

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/banshee-data/spat.report/internal/signal"
)

// Card is everything shown to the driver for one frame.
type Card struct {
	IntersectionName string
	IntersectionID   string
	LaneID           int
	SignalGroup      *int
	Color            signal.Color
	SecondsRemaining *float64
}

// NextColor is the colour expected after the current one.
func (c Card) NextColor() signal.Color {
	return c.Color.Next()
}

// Countdown formats the time until the next colour, "soon" when unknown.
func (c Card) Countdown() string {
	if c.SecondsRemaining == nil {
		return "soon"
	}
	return fmt.Sprintf("in %.1f s", *c.SecondsRemaining)
}

// Presenter receives one card per processed frame.
type Presenter interface {
	Present(Card) error
}

// Recorder is a Presenter that keeps every card in memory.
type Recorder struct {
	mu    sync.Mutex
	cards []Card
}

func (r *Recorder) Present(c Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, c)
	return nil
}

// Cards returns a copy of the presented cards in order.
func (r *Recorder) Cards() []Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Card, len(r.cards))
	copy(out, r.cards)
	return out
}

// Discard is a Presenter that drops every card.
var Discard Presenter = discard{}

type discard struct{}

func (discard) Present(Card) error { return nil }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}
