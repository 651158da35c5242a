package timing

import (
	"math/rand"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrimary(t *testing.T) {
	tests := []struct {
		name     string
		now, end int64
		want     float64
	}{
		{"end after now", 58000, 50, 7},
		{"same minute", 10000, 150, 5},
		{"now at zero", 0, 599, 59.9},
		{"end equals now", 30000, 300, 0},
		{"beyond minute wraps", 61000, 620, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ResolvePrimary(tt.now, tt.end), 1e-9)
		})
	}
}

func TestResolvePrimaryBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		now := rng.Int63n(1 << 32)
		end := rng.Int63n(1 << 32)
		got := ResolvePrimary(now, end)
		require.GreaterOrEqual(t, got, 0.0, "now=%d end=%d", now, end)
		require.Less(t, got, Horizon, "now=%d end=%d", now, end)
	}
}

func TestResolvePrimarySameInstantIsZero(t *testing.T) {
	// now and end name the same instant when now is 100x end.
	for _, ds := range []int64{0, 1, 37, 599, 600, 12345} {
		assert.InDelta(t, 0, ResolvePrimary(ds*100, ds), 1e-9, "ds=%d", ds)
	}
}

func TestResolveHypotheses(t *testing.T) {
	tests := []struct {
		name     string
		now, end int64
		want     float64
	}{
		{"identical counters", 4321, 4321, 0},
		{"millisecond reading is smallest", 100, 150, 0.05},
		{"smallest in range wins", 1000, 1450, 0.45},
		{"negative difference skips out of range rollover", 590, 10, 2},
		{"centisecond wrap", 0, 12345, 3.45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ResolveHypotheses(tt.now, tt.end), 1e-9)
		})
	}
}

func TestResolveHypothesesBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		now := rng.Int63n(1 << 20)
		end := rng.Int63n(1 << 20)
		got := ResolveHypotheses(now, end)
		require.GreaterOrEqual(t, got, 0.0)
		require.Less(t, got, Horizon)
	}
}

func TestResolverAbsentInputs(t *testing.T) {
	for _, mode := range []Mode{ModePrimary, ModeHypotheses} {
		r := Resolver{Mode: mode}
		_, ok := r.Resolve(nil, lo.ToPtr(int64(1)))
		assert.False(t, ok)
		_, ok = r.Resolve(lo.ToPtr(int64(1)), nil)
		assert.False(t, ok)
	}

	got, ok := Resolver{}.Resolve(lo.ToPtr(int64(58000)), lo.ToPtr(int64(50)))
	require.True(t, ok)
	assert.InDelta(t, 7, got, 1e-9, "zero-value resolver uses the primary pairing")

	got, ok = Resolver{Mode: ModeHypotheses}.Resolve(lo.ToPtr(int64(590)), lo.ToPtr(int64(10)))
	require.True(t, ok)
	assert.InDelta(t, 2, got, 1e-9)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePrimary, m)

	m, err = ParseMode("hypotheses")
	require.NoError(t, err)
	assert.Equal(t, ModeHypotheses, m)

	_, err = ParseMode("guess")
	assert.ErrorContains(t, err, "guess")
}
