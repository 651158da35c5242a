// Package config loads playback settings from an optional JSON file and the
// process environment. Command-line flags override both.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/banshee-data/spat.report/internal/j2735/records"
	"github.com/banshee-data/spat.report/internal/monitoring"
	"github.com/banshee-data/spat.report/internal/timing"
)

// Environment variables consulted by LoadEnv.
const (
	EnvConfigPath = "SPAT_CONFIG"
	EnvLogLevel   = "SPAT_LOG_LEVEL"
)

const (
	DefaultRate     = 100 * time.Millisecond
	DefaultSyncMin  = 10 * time.Millisecond
	DefaultSyncMax  = 5 * time.Second
	DefaultLogLevel = "info"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// PlaybackConfig holds every playback setting. Nil fields fall back to the
// defaults returned by the Get* accessors, so partial files are safe.
type PlaybackConfig struct {
	LaneID *int `json:"lane_id,omitempty"`

	// Pacing
	Rate     *string `json:"rate,omitempty"` // duration string like "100ms"
	SyncTime *bool   `json:"sync_time,omitempty"`
	SyncMin  *string `json:"sync_min,omitempty"`
	SyncMax  *string `json:"sync_max,omitempty"`

	// Presentation
	NoClear *bool `json:"no_clear,omitempty"`
	NoColor *bool `json:"no_color,omitempty"`

	// Record delimiters
	MapStart  *string `json:"map_start,omitempty"`
	MapEnd    *string `json:"map_end,omitempty"`
	SPaTStart *string `json:"spat_start,omitempty"`
	SPaTEnd   *string `json:"spat_end,omitempty"`

	TimeResolution *string `json:"time_resolution,omitempty"`
	LogLevel       *string `json:"log_level,omitempty"`
	UDPPort        *int    `json:"udp_port,omitempty"`
}

// LoadEnv reads an optional dotenv file into the process environment.
// Variables already set are left alone. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load resolves the config file to use: path if set, otherwise $SPAT_CONFIG,
// otherwise an empty config. $SPAT_LOG_LEVEL fills log_level when the file
// leaves it unset.
func Load(path string) (*PlaybackConfig, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	cfg := &PlaybackConfig{}
	if path != "" {
		var err error
		if cfg, err = LoadPlaybackConfig(path); err != nil {
			return nil, err
		}
	}
	if cfg.LogLevel == nil {
		if lvl := os.Getenv(EnvLogLevel); lvl != "" {
			cfg.LogLevel = &lvl
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
			}
		}
	}
	return cfg, nil
}

// LoadPlaybackConfig loads a PlaybackConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadPlaybackConfig(path string) (*PlaybackConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &PlaybackConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *PlaybackConfig) Validate() error {
	if c.LaneID != nil && *c.LaneID < 0 {
		return fmt.Errorf("lane_id must be non-negative, got %d", *c.LaneID)
	}

	for name, v := range map[string]*string{"rate": c.Rate, "sync_min": c.SyncMin, "sync_max": c.SyncMax} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, d)
		}
	}
	if c.GetSyncMin() > c.GetSyncMax() {
		return fmt.Errorf("sync_min %s exceeds sync_max %s", c.GetSyncMin(), c.GetSyncMax())
	}

	if err := c.MapScanner().Validate(); err != nil {
		return fmt.Errorf("map delimiters: %w", err)
	}
	if err := c.SPaTScanner().Validate(); err != nil {
		return fmt.Errorf("spat delimiters: %w", err)
	}

	if c.TimeResolution != nil {
		if _, err := timing.ParseMode(*c.TimeResolution); err != nil {
			return err
		}
	}
	if c.LogLevel != nil {
		if _, ok := monitoring.Levels[*c.LogLevel]; !ok {
			return fmt.Errorf("unknown log_level %q", *c.LogLevel)
		}
	}
	if c.UDPPort != nil && (*c.UDPPort < 0 || *c.UDPPort > 65535) {
		return fmt.Errorf("udp_port must be between 0 and 65535, got %d", *c.UDPPort)
	}
	return nil
}

// GetLaneID returns the observer lane and whether one is configured.
func (c *PlaybackConfig) GetLaneID() (int, bool) {
	if c.LaneID == nil {
		return 0, false
	}
	return *c.LaneID, true
}

// GetRate returns the nominal inter-frame delay.
func (c *PlaybackConfig) GetRate() time.Duration {
	return parseDuration(c.Rate, DefaultRate)
}

func (c *PlaybackConfig) GetSyncTime() bool { return c.SyncTime != nil && *c.SyncTime }

// GetSyncMin returns the shortest clock-derived delay accepted by sync pacing.
func (c *PlaybackConfig) GetSyncMin() time.Duration {
	return parseDuration(c.SyncMin, DefaultSyncMin)
}

// GetSyncMax returns the longest clock-derived delay accepted by sync pacing.
func (c *PlaybackConfig) GetSyncMax() time.Duration {
	return parseDuration(c.SyncMax, DefaultSyncMax)
}

func (c *PlaybackConfig) GetNoClear() bool { return c.NoClear != nil && *c.NoClear }

func (c *PlaybackConfig) GetNoColor() bool { return c.NoColor != nil && *c.NoColor }

// MapScanner returns the MAP record delimiters, defaulting each side.
func (c *PlaybackConfig) MapScanner() records.Scanner {
	s := records.MapScanner()
	if c.MapStart != nil {
		s.Start = *c.MapStart
	}
	if c.MapEnd != nil {
		s.End = *c.MapEnd
	}
	return s
}

// SPaTScanner returns the SPaT record delimiters, defaulting each side.
func (c *PlaybackConfig) SPaTScanner() records.Scanner {
	s := records.SPaTScanner()
	if c.SPaTStart != nil {
		s.Start = *c.SPaTStart
	}
	if c.SPaTEnd != nil {
		s.End = *c.SPaTEnd
	}
	return s
}

// GetTimeResolution returns the resolver mode, ModePrimary when unset.
func (c *PlaybackConfig) GetTimeResolution() timing.Mode {
	if c.TimeResolution == nil {
		return timing.ModePrimary
	}
	m, err := timing.ParseMode(*c.TimeResolution)
	if err != nil {
		return timing.ModePrimary
	}
	return m
}

func (c *PlaybackConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return DefaultLogLevel
	}
	return *c.LogLevel
}

// GetUDPPort returns the UDP port filter for capture input. 0 accepts any port.
func (c *PlaybackConfig) GetUDPPort() int {
	if c.UDPPort == nil {
		return 0
	}
	return *c.UDPPort
}

func parseDuration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}
