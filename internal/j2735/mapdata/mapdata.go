// Package mapdata decodes J2735 MapData (intersection geometry) records into
// the lane to signal group mapping used by the countdown.
package mapdata

import (
	"errors"
	"slices"

	"github.com/beevik/etree"
	"github.com/samber/lo"

	"github.com/banshee-data/spat.report/internal/j2735/xmlpath"
)

// ErrNoGeometry is returned when a record has no IntersectionGeometry container.
var ErrNoGeometry = errors.New("map record has no IntersectionGeometry")

const geometryPath = ".//intersections/IntersectionGeometry"

// Encoders disagree on whether the id is wrapped in an IntersectionReferenceID.
var (
	idPaths   = []string{"id/id", "id"}
	namePaths = []string{"name", "id/name"}
)

// Lane is one GenericLane entry. SignalGroup is nil when none of the lane's
// connections carries a signal group.
type Lane struct {
	ID          int
	SignalGroup *int
}

// Geometry is the decoded form of one intersection geometry record.
type Geometry struct {
	ID    string
	Name  string
	Lanes map[int]Lane
}

// Decode parses a MapData record.
func Decode(record string) (*Geometry, error) {
	root, err := xmlpath.Parse(record)
	if err != nil {
		return nil, err
	}
	return DecodeElement(root)
}

// DecodeElement decodes an already parsed MapData element.
func DecodeElement(root *etree.Element) (*Geometry, error) {
	ig := root.FindElement(geometryPath)
	if ig == nil {
		return nil, ErrNoGeometry
	}

	g := &Geometry{
		ID:    xmlpath.Text(ig, idPaths...),
		Name:  xmlpath.Text(ig, namePaths...),
		Lanes: make(map[int]Lane),
	}

	for _, gl := range ig.FindElements("laneSet/GenericLane") {
		id, ok := xmlpath.Int(gl, "laneID")
		if !ok {
			continue
		}
		g.Lanes[id] = Lane{ID: id, SignalGroup: laneSignalGroup(gl)}
	}
	return g, nil
}

// laneSignalGroup returns the signal group of the first connection that has a
// numeric one.
func laneSignalGroup(gl *etree.Element) *int {
	for _, ct := range gl.FindElements("connectsTo/Connection") {
		if sg, ok := xmlpath.Int(ct, "signalGroup"); ok {
			return &sg
		}
	}
	return nil
}

// SignalGroup looks up the signal group governing lane. ok is false when the
// lane is not part of the geometry; a present lane may still have a nil
// signal group.
func (g *Geometry) SignalGroup(lane int) (sg *int, ok bool) {
	l, ok := g.Lanes[lane]
	if !ok {
		return nil, false
	}
	return l.SignalGroup, true
}

// LaneIDs returns the known lane identifiers in ascending order.
func (g *Geometry) LaneIDs() []int {
	ids := lo.Keys(g.Lanes)
	slices.Sort(ids)
	return ids
}
