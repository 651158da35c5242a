package playback

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestPacerDelay(t *testing.T) {
	p := Pacer{Rate: 100 * time.Millisecond, Sync: true, Min: 10 * time.Millisecond, Max: 5 * time.Second}
	ptr := func(v int64) *int64 { return lo.ToPtr(v) }

	tests := []struct {
		name      string
		last, now *int64
		want      time.Duration
	}{
		{"in range", ptr(100), ptr(150), 500 * time.Millisecond},
		{"lower bound", ptr(100), ptr(101), 10 * time.Millisecond},
		{"upper bound", ptr(0), ptr(500), 5 * time.Second},
		{"too long", ptr(0), ptr(501), 100 * time.Millisecond},
		{"no change", ptr(100), ptr(100), 100 * time.Millisecond},
		{"backwards", ptr(500), ptr(100), 100 * time.Millisecond},
		{"missing last", nil, ptr(100), 100 * time.Millisecond},
		{"missing now", ptr(100), nil, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Delay(tt.last, tt.now))
		})
	}

	p.Sync = false
	assert.Equal(t, 100*time.Millisecond, p.Delay(ptr(100), ptr(150)))
}
