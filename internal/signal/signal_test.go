package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorFor(t *testing.T) {
	tests := []struct {
		event string
		want  Color
	}{
		{"protected-Movement-Allowed", Green},
		{"permissive-Movement-Allowed", Green},
		{"protected-clearance", Yellow},
		{"permissive-clearance", Yellow},
		{"caution-Conflicting-Traffic", Yellow},
		{"stop-And-Remain", Red},
		{"stop-Then-Proceed", Red},
		{"dark", Red},
		{"", Red},
		{"pre-Movement", Red},
		{"STOP-AND-REMAIN", Red},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorFor(tt.event))
		})
	}
}

func TestNextAndString(t *testing.T) {
	assert.Equal(t, Yellow, Green.Next())
	assert.Equal(t, Red, Yellow.Next())
	assert.Equal(t, Green, Red.Next())

	assert.Equal(t, "green", Green.String())
	assert.Equal(t, "yellow", Yellow.String())
	assert.Equal(t, "red", Red.String())
	assert.Equal(t, "red", Color(42).String())
}
