// Package signal maps J2735 movement phase states onto the three-colour
// abstraction shown to the driver.
package signal

// Color is the simplified indication for a movement.
type Color int

const (
	Red Color = iota
	Yellow
	Green
)

func (c Color) String() string {
	switch c {
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	default:
		return "red"
	}
}

// Next returns the colour that normally follows c in a signal cycle.
func (c Color) Next() Color {
	switch c {
	case Green:
		return Yellow
	case Yellow:
		return Red
	default:
		return Green
	}
}

// eventColors is the fixed MovementPhaseState vocabulary. Dark is shown as red.
var eventColors = map[string]Color{
	"protected-Movement-Allowed":  Green,
	"permissive-Movement-Allowed": Green,
	"protected-clearance":         Yellow,
	"permissive-clearance":        Yellow,
	"caution-Conflicting-Traffic": Yellow,
	"stop-And-Remain":             Red,
	"stop-Then-Proceed":           Red,
	"dark":                        Red,
}

// ColorFor maps an event state name to a colour. Absent or unrecognised
// names map to Red.
func ColorFor(event string) Color {
	if c, ok := eventColors[event]; ok {
		return c
	}
	return Red
}
