package report

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteChart renders an interactive HTML line chart of the fresh and
// smoothed countdown per frame.
func WriteChart(w io.Writer, title string, samples []Sample) error {
	x := make([]string, 0, len(samples))
	fresh := make([]opts.LineData, 0, len(samples))
	smoothed := make([]opts.LineData, 0, len(samples))
	for _, s := range samples {
		x = append(x, strconv.Itoa(s.Index))
		fresh = append(fresh, lineValue(s.Fresh))
		smoothed = append(smoothed, lineValue(s.Smoothed))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "SPaT countdown", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("frames=%d", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Remaining (s)", Min: 0, Max: 60}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x).
		AddSeries("fresh", fresh).
		AddSeries("smoothed", smoothed)
	return line.Render(w)
}

// lineValue maps an absent value to "-", which echarts draws as a gap.
func lineValue(v *float64) opts.LineData {
	if v == nil {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: *v}
}

// WritePlot renders the same series as a static PNG.
func WritePlot(w io.Writer, title string, samples []Sample) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Remaining (s)"
	p.Y.Min = 0
	p.Y.Max = 60

	series := []struct {
		name  string
		value func(Sample) *float64
		color color.Color
	}{
		{"fresh", func(s Sample) *float64 { return s.Fresh }, color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}},
		{"smoothed", func(s Sample) *float64 { return s.Smoothed }, color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}},
	}
	for _, ser := range series {
		pts := make(plotter.XYs, 0, len(samples))
		for _, s := range samples {
			if v := ser.value(s); v != nil {
				pts = append(pts, plotter.XY{X: float64(s.Index), Y: *v})
			}
		}
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = ser.color
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(ser.name, l)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
