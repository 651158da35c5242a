// Command spat-view replays a MAP/SPaT telemetry log and shows the next
// light for one lane as a terminal countdown card.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/spat.report/internal/config"
	"github.com/banshee-data/spat.report/internal/db"
	"github.com/banshee-data/spat.report/internal/fsutil"
	"github.com/banshee-data/spat.report/internal/monitoring"
	"github.com/banshee-data/spat.report/internal/playback"
	"github.com/banshee-data/spat.report/internal/render"
	"github.com/banshee-data/spat.report/internal/source"
	"github.com/banshee-data/spat.report/internal/version"
)

var (
	laneID         = flag.Int("lane", 0, "Observer lane ID from the MAP (required unless set in -config)")
	rate           = flag.Duration("rate", config.DefaultRate, "Delay between frames, and the smoother's fallback interval")
	syncTime       = flag.Bool("sync-time", false, "Pace frames by the SPaT clock when the gap is plausible")
	noClear        = flag.Bool("no-clear", false, "Append cards instead of clearing the screen")
	noColor        = flag.Bool("no-color", false, "Disable ANSI colour and bold")
	configPath     = flag.String("config", "", "Path to a JSON playback config (default $"+config.EnvConfigPath+")")
	envFile        = flag.String("env-file", ".env", "Optional dotenv file loaded before the config")
	recordPath     = flag.String("record", "", "Record the run to this SQLite database")
	udpPort        = flag.Int("udp-port", 0, "Keep only capture payloads on this UDP port (0 = any)")
	timeResolution = flag.String("time-resolution", "", "Time resolution mode: primary or hypotheses")
	logLevel       = flag.String("log.level", "", "Log level: trace, debug, info, warn, error, off")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

var log = monitoring.Logger("spat-view")

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("spat-view"))
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(exitCode(run(ctx, fsutil.OSFileSystem{}, flag.Arg(0), os.Stdout)))
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <log.xml|capture.pcap>\n\n", os.Args[0])
	flag.PrintDefaults()
}

// loadConfig reads the env file and config, then applies explicitly set flags.
func loadConfig() (*config.PlaybackConfig, error) {
	if err := config.LoadEnv(*envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.PlaybackConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lane":
			cfg.LaneID = laneID
		case "rate":
			s := rate.String()
			cfg.Rate = &s
		case "sync-time":
			cfg.SyncTime = syncTime
		case "no-clear":
			cfg.NoClear = noClear
		case "no-color":
			cfg.NoColor = noColor
		case "udp-port":
			cfg.UDPPort = udpPort
		case "time-resolution":
			cfg.TimeResolution = timeResolution
		case "log.level":
			cfg.LogLevel = logLevel
		}
	})
}

func run(ctx context.Context, fsys fsutil.FileSystem, path string, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	monitoring.SetOutput(os.Stderr)
	if err := monitoring.SetLevel(cfg.GetLogLevel()); err != nil {
		return err
	}

	opts, err := cfg.PlaybackOptions()
	if err != nil {
		return err
	}
	text, err := source.Load(ctx, fsys, path, source.Options{UDPPort: cfg.GetUDPPort()})
	if err != nil {
		return err
	}

	term := render.NewTerminal(out, render.TerminalOptions{NoClear: cfg.GetNoClear(), NoColor: cfg.GetNoColor()})
	session, err := playback.NewSession(text, opts, term)
	if err != nil {
		return err
	}

	var rec *db.Recorder
	if *recordPath != "" {
		store, err := db.NewDB(*recordPath)
		if err != nil {
			return fmt.Errorf("open recording database: %w", err)
		}
		defer store.Close()

		rec, err = db.NewRecorder(ctx, store, session, path)
		if err != nil {
			return err
		}
		session.AddObserver(rec)
		log.WithField("run_id", rec.RunID()).Infof("recording to %s", *recordPath)
	}

	stats, runErr := session.Run(ctx)
	if rec != nil {
		// The run row is closed even when playback was interrupted.
		if err := rec.Finish(context.WithoutCancel(ctx), stats); err != nil {
			log.WithError(err).Warn("failed to finish recorded run")
		}
	}
	return runErr
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, playback.ErrNoMatchingFrames):
		fmt.Fprintln(os.Stderr, err)
		return 2
	default:
		log.WithError(err).Error("spat-view failed")
		return 1
	}
}
