// Package testutil provides shared test fixtures for XER-encoded MAP and
// SPaT records.
//
// This package centralises record builders so decoder, playback and command
// tests describe telemetry by intent instead of repeating XML literals.
package testutil

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LaneSpec describes one GenericLane. Each entry in SignalGroups becomes a
// Connection; an empty entry produces a Connection with no signalGroup.
// An empty ID omits the laneID element.
type LaneSpec struct {
	ID           string
	SignalGroups []string
}

// MapSpec describes one MapData record.
type MapSpec struct {
	ID     string
	Name   string
	FlatID bool // encode <id>N</id> instead of <id><id>N</id></id>
	Lanes  []LaneSpec
}

// MapRecord renders a MapData record.
func MapRecord(spec MapSpec) string {
	var b strings.Builder
	b.WriteString("<MapData><msgIssueRevision>1</msgIssueRevision><intersections><IntersectionGeometry>")
	writeID(&b, spec.ID, spec.FlatID)
	if spec.Name != "" {
		fmt.Fprintf(&b, "<name>%s</name>", escape(spec.Name))
	}
	b.WriteString("<laneSet>")
	for _, l := range spec.Lanes {
		b.WriteString("<GenericLane>")
		if l.ID != "" {
			fmt.Fprintf(&b, "<laneID>%s</laneID>", escape(l.ID))
		}
		if len(l.SignalGroups) > 0 {
			b.WriteString("<connectsTo>")
			for _, sg := range l.SignalGroups {
				b.WriteString("<Connection><connectingLane><lane>99</lane></connectingLane>")
				if sg != "" {
					fmt.Fprintf(&b, "<signalGroup>%s</signalGroup>", escape(sg))
				}
				b.WriteString("</Connection>")
			}
			b.WriteString("</connectsTo>")
		}
		b.WriteString("</GenericLane>")
	}
	b.WriteString("</laneSet></IntersectionGeometry></intersections></MapData>")
	return b.String()
}

// EventSpec describes one MovementEvent. State is encoded as an empty child
// element unless TextState is set. PhaseEnd is written under Container/Field,
// defaulting to timing/minEndTime; an empty PhaseEnd omits the timing.
type EventSpec struct {
	State     string
	TextState bool
	PhaseEnd  string
	Container string
	Field     string
}

// MovementSpec describes one MovementState.
type MovementSpec struct {
	SignalGroup string
	Events      []EventSpec
}

// SPaTSpec describes one SPAT record.
type SPaTSpec struct {
	IntersectionID string
	TimeStamp      string // SPAT-level timeStamp
	Moy            string // IntersectionState-level moy
	Movements      []MovementSpec
}

// SPaTRecord renders a SPAT record.
func SPaTRecord(spec SPaTSpec) string {
	var b strings.Builder
	b.WriteString("<SPAT>")
	if spec.TimeStamp != "" {
		fmt.Fprintf(&b, "<timeStamp>%s</timeStamp>", escape(spec.TimeStamp))
	}
	b.WriteString("<intersections><IntersectionState>")
	writeID(&b, spec.IntersectionID, false)
	b.WriteString("<revision>1</revision><status>0000000000000000</status>")
	if spec.Moy != "" {
		fmt.Fprintf(&b, "<moy>%s</moy>", escape(spec.Moy))
	}
	b.WriteString("<states>")
	for _, m := range spec.Movements {
		b.WriteString("<MovementState>")
		if m.SignalGroup != "" {
			fmt.Fprintf(&b, "<signalGroup>%s</signalGroup>", escape(m.SignalGroup))
		}
		b.WriteString("<state-time-speed>")
		for _, ev := range m.Events {
			writeEvent(&b, ev)
		}
		b.WriteString("</state-time-speed></MovementState>")
	}
	b.WriteString("</states></IntersectionState></intersections></SPAT>")
	return b.String()
}

// Log joins records into a log body wrapped in an envelope, one record per
// entry, as captured by roadside logging tools.
func Log(records ...string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<log>\n")
	for i, r := range records {
		fmt.Fprintf(&b, "<entry seq=\"%d\"><value>%s</value></entry>\n", i, r)
	}
	b.WriteString("</log>\n")
	return b.String()
}

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

func writeID(b *strings.Builder, id string, flat bool) {
	if id == "" {
		return
	}
	if flat {
		fmt.Fprintf(b, "<id>%s</id>", escape(id))
		return
	}
	fmt.Fprintf(b, "<id><region>0</region><id>%s</id></id>", escape(id))
}

func writeEvent(b *strings.Builder, ev EventSpec) {
	b.WriteString("<MovementEvent>")
	if ev.State != "" {
		if ev.TextState {
			fmt.Fprintf(b, "<eventState>%s</eventState>", escape(ev.State))
		} else {
			fmt.Fprintf(b, "<eventState><%s/></eventState>", ev.State)
		}
	}
	if ev.PhaseEnd != "" {
		container, field := ev.Container, ev.Field
		if container == "" {
			container = "timing"
		}
		if field == "" {
			field = "minEndTime"
		}
		fmt.Fprintf(b, "<%s><%s>%s</%s></%s>", container, field, escape(ev.PhaseEnd), field, container)
	}
	b.WriteString("</MovementEvent>")
}

// escape returns s as XML character data. Element names are written as is.
func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
