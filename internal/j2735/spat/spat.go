// Package spat decodes J2735 SPAT (signal phase and timing) records into
// per-signal-group phase observations.
//
// Decoding is deliberately forgiving: the only error is a record that is not
// XML at all. Missing containers produce an empty Frame, and missing fields
// are reported as absent (nil pointers or empty strings) so a single odd
// vendor encoding never stops playback.
package spat

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/banshee-data/spat.report/internal/j2735/xmlpath"
	"github.com/banshee-data/spat.report/internal/units"
)

const (
	spatTag           = "SPAT"
	intersectionPath  = ".//intersections/IntersectionState"
	movementStatePath = "states/MovementState"
	movementEventPath = "state-time-speed/MovementEvent"
)

var (
	// Locations of the SPAT node, tried after the record root itself.
	spatPaths = []string{".//" + spatTag, ".//value/" + spatTag}

	idPaths = []string{"id/id", "id"}

	// Device clock sources. Each group yields at most one candidate: the
	// first counter among timeStamp, msecOfMin and dSecond, then moy.
	nowGroups = [][]string{
		{".//timeStamp", ".//msecOfMin", ".//dSecond"},
		{".//moy"},
	}

	phaseEndContainers = []string{"timing", "timeChangeDetails"}
	phaseEndFields     = []string{"likelyTime", "minEndTime", "maxEndTime", "endTime"}
)

// Observation is the state of one signal group in one frame.
type Observation struct {
	SignalGroup int
	EventName   string // empty when absent
	PhaseEndRaw *int64
}

// Frame is one decoded SPAT record.
type Frame struct {
	IntersectionID string
	Now            *int64
	Observations   []Observation
}

// Empty reports whether the frame carries no observations.
func (f Frame) Empty() bool { return len(f.Observations) == 0 }

// Lookup returns the first observation for signal group sg.
func (f Frame) Lookup(sg int) (Observation, bool) {
	for _, o := range f.Observations {
		if o.SignalGroup == sg {
			return o, true
		}
	}
	return Observation{}, false
}

// Decode parses a SPAT record. The returned error wraps xmlpath.ErrMalformed
// and is only set when the record is not a parseable document.
func Decode(record string) (Frame, error) {
	root, err := xmlpath.Parse(record)
	if err != nil {
		return Frame{}, err
	}
	return DecodeElement(root), nil
}

// DecodeElement decodes an already parsed record.
func DecodeElement(root *etree.Element) Frame {
	node := root
	if root.Tag != spatTag {
		node = xmlpath.Find(root, spatPaths...)
	}
	if node == nil {
		return Frame{}
	}

	inter := node.FindElement(intersectionPath)
	if inter == nil {
		return Frame{}
	}

	f := Frame{
		IntersectionID: xmlpath.Text(inter, idPaths...),
		Now:            decodeNow(node),
	}
	for _, ms := range inter.FindElements(movementStatePath) {
		sg, ok := xmlpath.Int(ms, "signalGroup")
		if !ok {
			continue
		}
		f.Observations = append(f.Observations, decodeMovement(sg, ms))
	}
	return f
}

// decodeNow takes one candidate per source group and prefers the first one
// small enough to be a within-minute counter.
func decodeNow(node *etree.Element) *int64 {
	var candidates []int64
	for _, paths := range nowGroups {
		if v, ok := xmlpath.FirstCounter(node, paths...); ok {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, v := range candidates {
		if units.WrapsWithinMinuteAny(v) {
			return &v
		}
	}
	return &candidates[0]
}

func decodeMovement(sg int, ms *etree.Element) Observation {
	obs := Observation{SignalGroup: sg}

	events := ms.FindElements(movementEventPath)
	if len(events) == 0 {
		return obs
	}

	chosen := events[0]
	for _, ev := range events {
		if end := phaseEnd(ev); end != nil {
			chosen = ev
			obs.PhaseEndRaw = end
			break
		}
	}
	obs.EventName = eventState(chosen)
	return obs
}

func phaseEnd(ev *etree.Element) *int64 {
	for _, c := range phaseEndContainers {
		t := ev.SelectElement(c)
		if t == nil {
			continue
		}
		if v, ok := xmlpath.FirstCounter(t, phaseEndFields...); ok {
			return &v
		}
	}
	return nil
}

// eventState reads the movement phase state, encoded either as a single
// empty child element (<eventState><stop-And-Remain/></eventState>) or as
// text.
func eventState(ev *etree.Element) string {
	es := ev.SelectElement("eventState")
	if es == nil {
		return ""
	}
	if kids := es.ChildElements(); len(kids) > 0 {
		return kids[0].Tag
	}
	return strings.TrimSpace(es.Text())
}
