// Package main provides a batch analysis tool for SPaT telemetry logs.
// It replays a log through the countdown pipeline without pacing and
// exports a JSON summary, with optional charts and a SQLite recording.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/spat.report/internal/config"
	"github.com/banshee-data/spat.report/internal/db"
	"github.com/banshee-data/spat.report/internal/fsutil"
	"github.com/banshee-data/spat.report/internal/monitoring"
	"github.com/banshee-data/spat.report/internal/playback"
	"github.com/banshee-data/spat.report/internal/render"
	"github.com/banshee-data/spat.report/internal/report"
	"github.com/banshee-data/spat.report/internal/source"
	"github.com/banshee-data/spat.report/internal/version"
)

// Config holds configuration for one analysis run.
type Config struct {
	InputFile      string
	OutputDir      string
	ConfigPath     string
	LaneID         *int    // nil keeps the config file value
	UDPPort        *int    // nil keeps the config file value
	TimeResolution *string // nil keeps the config file value
	DBPath         string
	ExportChart    bool
	ExportPlot     bool
	LogLevel       string
	ShowVersion    bool
}

// Output file names written under Config.OutputDir.
const (
	summaryFile = "summary.json"
	chartFile   = "countdown.html"
	plotFile    = "countdown.png"
)

var log = monitoring.Logger("spat-analyze")

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	if cfg.ShowVersion {
		fmt.Println(version.String("spat-analyze"))
		return
	}
	if cfg.InputFile == "" {
		fmt.Fprintln(os.Stderr, "Error: input file is required")
		flag.CommandLine.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	monitoring.SetOutput(os.Stderr)
	if err := monitoring.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	sum, err := analyze(ctx, fsutil.OSFileSystem{}, cfg)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	printSummary(os.Stdout, sum)
}

// parseFlags parses args into a Config. Lane, port and resolution are only
// set when given on the command line, so the config file can supply them.
func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}

	fs.StringVar(&cfg.InputFile, "input", "", "Path to an XER log or pcap capture (required)")
	fs.StringVar(&cfg.OutputDir, "output", ".", "Output directory for results")
	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to a JSON playback config (default $"+config.EnvConfigPath+")")
	lane := fs.Int("lane", 0, "Observer lane ID (overrides the config)")
	udpPort := fs.Int("udp-port", 0, "Keep only capture payloads on this UDP port (0 = any)")
	timeResolution := fs.String("time-resolution", "", "Time resolution mode: primary or hypotheses")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite database path (optional, records every frame)")
	fs.BoolVar(&cfg.ExportChart, "chart", false, "Export an interactive countdown chart ("+chartFile+")")
	fs.BoolVar(&cfg.ExportPlot, "plot", false, "Export a static countdown plot ("+plotFile+")")
	fs.StringVar(&cfg.LogLevel, "log.level", config.DefaultLogLevel, "Log level: trace, debug, info, warn, error, off")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage: %s [options]\n\n", fs.Name())
		fmt.Fprintf(w, "Replays a SPaT log for one lane without pacing and reports how the\n")
		fmt.Fprintf(w, "countdown behaved: colour mix, reset count and the size of each reset.\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s -input spat.xml -lane 5 -output ./results\n", fs.Name())
		fmt.Fprintf(w, "  %s -input capture.pcap -lane 5 -chart -plot -db runs.db\n", fs.Name())
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lane":
			cfg.LaneID = lane
		case "udp-port":
			cfg.UDPPort = udpPort
		case "time-resolution":
			cfg.TimeResolution = timeResolution
		}
	})
	return cfg, nil
}

// playbackConfig merges the config file with the command-line overrides.
func playbackConfig(cfg Config) (*config.PlaybackConfig, error) {
	pc, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.LaneID != nil {
		pc.LaneID = cfg.LaneID
	}
	if cfg.UDPPort != nil {
		pc.UDPPort = cfg.UDPPort
	}
	if cfg.TimeResolution != nil {
		pc.TimeResolution = cfg.TimeResolution
	}
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	return pc, nil
}

// analyze runs the whole input through a session and writes the exports
// under cfg.OutputDir.
func analyze(ctx context.Context, fsys fsutil.FileSystem, cfg Config) (report.Summary, error) {
	pc, err := playbackConfig(cfg)
	if err != nil {
		return report.Summary{}, err
	}
	opts, err := pc.PlaybackOptions()
	if err != nil {
		return report.Summary{}, err
	}
	opts.Unpaced = true

	text, err := source.Load(ctx, fsys, cfg.InputFile, source.Options{UDPPort: pc.GetUDPPort()})
	if err != nil {
		return report.Summary{}, err
	}

	collector := &report.Collector{}
	session, err := playback.NewSession(text, opts, render.Discard, collector)
	if err != nil {
		return report.Summary{}, err
	}

	var rec *db.Recorder
	if cfg.DBPath != "" {
		store, err := db.NewDB(cfg.DBPath)
		if err != nil {
			return report.Summary{}, fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		if rec, err = db.NewRecorder(ctx, store, session, cfg.InputFile); err != nil {
			return report.Summary{}, err
		}
		session.AddObserver(rec)
	}

	stats, err := session.Run(ctx)
	if rec != nil {
		if ferr := rec.Finish(context.WithoutCancel(ctx), stats); ferr != nil {
			log.WithError(ferr).Warn("failed to finish recorded run")
		}
	}
	// A log with no frames for the lane still gets a summary.
	if err != nil && !errors.Is(err, playback.ErrNoMatchingFrames) {
		return report.Summary{}, err
	}

	sum := report.Summarize(session, cfg.InputFile, stats, collector.Samples())
	if err := exportResults(fsys, cfg, sum, collector.Samples()); err != nil {
		return report.Summary{}, fmt.Errorf("export failed: %w", err)
	}
	return sum, nil
}

func exportResults(fsys fsutil.FileSystem, cfg Config, sum report.Summary, samples []report.Sample) error {
	if err := fsys.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	title := fmt.Sprintf("%s lane %d", filepath.Base(cfg.InputFile), sum.LaneID)

	exports := []struct {
		enabled bool
		name    string
		write   func(io.Writer) error
	}{
		{true, summaryFile, sum.WriteJSON},
		{cfg.ExportChart, chartFile, func(w io.Writer) error { return report.WriteChart(w, title, samples) }},
		{cfg.ExportPlot, plotFile, func(w io.Writer) error { return report.WritePlot(w, title, samples) }},
	}
	for _, e := range exports {
		if !e.enabled {
			continue
		}
		path := filepath.Join(cfg.OutputDir, e.name)
		if err := writeFile(fsys, path, e.write); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		log.Infof("wrote %s", path)
	}
	return nil
}

func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, sum report.Summary) {
	fmt.Fprintf(w, "\n=== SPaT Analysis Summary ===\n")
	fmt.Fprintf(w, "Input:          %s\n", sum.Source)
	fmt.Fprintf(w, "Intersection:   %s (ID: %s)\n", sum.IntersectionName, sum.IntersectionID)
	sg := "-"
	if sum.SignalGroup != nil {
		sg = fmt.Sprint(*sum.SignalGroup)
	}
	fmt.Fprintf(w, "Lane:           %d (SG %s)\n", sum.LaneID, sg)
	fmt.Fprintf(w, "Resolution:     %s\n", sum.TimeResolution)
	fmt.Fprintf(w, "SPaT records:   %d (%d malformed, %d empty)\n", sum.Stats.Records, sum.Stats.Malformed, sum.Stats.Empty)
	fmt.Fprintf(w, "Matched frames: %d of %d\n", sum.Stats.Matched, sum.Stats.Presented)
	fmt.Fprintf(w, "Resets:         %d (%d continued)\n", sum.Resets, sum.Continued)
	if sum.Remaining.N > 0 {
		fmt.Fprintf(w, "Remaining (s):  mean %.2f, std %.2f, range %.1f-%.1f\n",
			sum.Remaining.Mean, sum.Remaining.StdDev, sum.Remaining.Min, sum.Remaining.Max)
	}
	if sum.ResetCorrection.N > 0 {
		fmt.Fprintf(w, "Reset jump (s): mean %+.2f over %d resets\n", sum.ResetCorrection.Mean, sum.ResetCorrection.N)
	}
	colors := make([]string, 0, len(sum.Colors))
	for _, c := range []string{"green", "yellow", "red"} {
		if n, ok := sum.Colors[c]; ok {
			colors = append(colors, fmt.Sprintf("%s=%d", c, n))
		}
	}
	fmt.Fprintf(w, "Colours:        %s\n", strings.Join(colors, " "))
}
