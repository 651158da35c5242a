package report

import (
	"encoding/json"
	"io"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/spat.report/internal/playback"
	"github.com/banshee-data/spat.report/internal/timing"
)

// Distribution is the mean and standard deviation of a series.
type Distribution struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary describes one run.
type Summary struct {
	Source           string         `json:"source"`
	LaneID           int            `json:"lane_id"`
	SignalGroup      *int           `json:"signal_group,omitempty"`
	IntersectionID   string         `json:"intersection_id,omitempty"`
	IntersectionName string         `json:"intersection_name,omitempty"`
	TimeResolution   string         `json:"time_resolution"`
	Stats            playback.Stats `json:"stats"`
	Colors           map[string]int `json:"colors"`
	Resets           int            `json:"resets"`
	Continued        int            `json:"continued"`
	Remaining        Distribution   `json:"remaining"`
	ResetCorrection  Distribution   `json:"reset_correction"`
}

// Summarize builds the Summary of a finished session.
func Summarize(s *playback.Session, source string, stats playback.Stats, samples []Sample) Summary {
	g := s.Geometry()
	sum := Summary{
		Source:           source,
		LaneID:           s.LaneID(),
		SignalGroup:      s.SignalGroup(),
		IntersectionID:   g.ID,
		IntersectionName: g.Name,
		TimeResolution:   string(s.Resolution()),
		Stats:            stats,
		Colors:           lo.CountValuesBy(samples, func(x Sample) string { return x.Color }),
	}

	matched := lo.Filter(samples, func(x Sample, _ int) bool { return x.Matched })
	sum.Resets = lo.CountBy(matched, func(x Sample) bool { return x.Transition == timing.Reset.String() })
	sum.Continued = len(matched) - sum.Resets

	sum.Remaining = distribution(lo.FilterMap(samples, func(x Sample, _ int) (float64, bool) {
		if x.Smoothed == nil {
			return 0, false
		}
		return *x.Smoothed, true
	}))
	sum.ResetCorrection = distribution(lo.FilterMap(samples, func(x Sample, _ int) (float64, bool) {
		if x.Correction == nil {
			return 0, false
		}
		return *x.Correction, true
	}))
	return sum
}

func distribution(xs []float64) Distribution {
	if len(xs) == 0 {
		return Distribution{}
	}
	d := Distribution{N: len(xs), Min: lo.Min(xs), Max: lo.Max(xs)}
	if len(xs) == 1 {
		d.Mean = xs[0]
		return d
	}
	d.Mean, d.StdDev = stat.MeanStdDev(xs, nil)
	return d
}

// WriteJSON writes the summary as indented JSON.
func (s Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
