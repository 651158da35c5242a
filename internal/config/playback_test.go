package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spat.report/internal/j2735/records"
	"github.com/banshee-data/spat.report/internal/timing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := &PlaybackConfig{}

	if _, ok := cfg.GetLaneID(); ok {
		t.Error("Expected no lane on empty config")
	}
	if cfg.GetRate() != 100*time.Millisecond {
		t.Errorf("GetRate() = %v, want 100ms", cfg.GetRate())
	}
	if cfg.GetSyncTime() || cfg.GetNoClear() || cfg.GetNoColor() {
		t.Error("Expected boolean switches to default off")
	}
	if cfg.GetSyncMin() != 10*time.Millisecond || cfg.GetSyncMax() != 5*time.Second {
		t.Errorf("sync range = [%v, %v], want [10ms, 5s]", cfg.GetSyncMin(), cfg.GetSyncMax())
	}
	if cfg.GetTimeResolution() != timing.ModePrimary {
		t.Errorf("GetTimeResolution() = %v", cfg.GetTimeResolution())
	}
	if cfg.GetLogLevel() != "info" {
		t.Errorf("GetLogLevel() = %q", cfg.GetLogLevel())
	}
	if cfg.GetUDPPort() != 0 {
		t.Errorf("GetUDPPort() = %d", cfg.GetUDPPort())
	}
	assert.Equal(t, records.MapScanner(), cfg.MapScanner())
	assert.Equal(t, records.SPaTScanner(), cfg.SPaTScanner())
	require.NoError(t, cfg.Validate())
}

func TestLoadPlaybackConfig(t *testing.T) {
	path := writeConfig(t, "playback.json", `{
  "lane_id": 5,
  "rate": "250ms",
  "sync_time": true,
  "no_clear": true,
  "spat_start": "<SPAT ",
  "time_resolution": "hypotheses",
  "log_level": "debug",
  "udp_port": 1516
}`)

	cfg, err := LoadPlaybackConfig(path)
	require.NoError(t, err)

	lane, ok := cfg.GetLaneID()
	assert.True(t, ok)
	assert.Equal(t, 5, lane)
	assert.Equal(t, 250*time.Millisecond, cfg.GetRate())
	assert.True(t, cfg.GetSyncTime())
	assert.True(t, cfg.GetNoClear())
	assert.False(t, cfg.GetNoColor())
	assert.Equal(t, records.Scanner{Start: "<SPAT ", End: records.SPaTEnd}, cfg.SPaTScanner())
	assert.Equal(t, timing.ModeHypotheses, cfg.GetTimeResolution())
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, 1516, cfg.GetUDPPort())
}

func TestLoadPlaybackConfigMissing(t *testing.T) {
	_, err := LoadPlaybackConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadPlaybackConfigRejectsNonJSON(t *testing.T) {
	path := writeConfig(t, "playback.yaml", "lane_id: 5")
	_, err := LoadPlaybackConfig(path)
	assert.ErrorContains(t, err, ".json extension")
}

func TestLoadPlaybackConfigRejectsLargeFile(t *testing.T) {
	body := `{"log_level": "info", "pad": "` + strings.Repeat("x", maxFileSize) + `"}`
	path := writeConfig(t, "big.json", body)
	_, err := LoadPlaybackConfig(path)
	assert.ErrorContains(t, err, "too large")
}

func TestLoadPlaybackConfigInvalidJSON(t *testing.T) {
	path := writeConfig(t, "bad.json", `{"lane_id": "five"`)
	_, err := LoadPlaybackConfig(path)
	assert.ErrorContains(t, err, "parse config JSON")
}

func TestValidate(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	tests := []struct {
		name    string
		cfg     PlaybackConfig
		wantErr string
	}{
		{"valid", PlaybackConfig{LaneID: num(5), Rate: str("50ms")}, ""},
		{"negative lane", PlaybackConfig{LaneID: num(-1)}, "lane_id"},
		{"bad rate", PlaybackConfig{Rate: str("fast")}, "invalid rate"},
		{"negative rate", PlaybackConfig{Rate: str("-1s")}, "rate must be non-negative"},
		{"inverted sync range", PlaybackConfig{SyncMin: str("2s"), SyncMax: str("1s")}, "exceeds sync_max"},
		{"empty map delimiter", PlaybackConfig{MapEnd: str("")}, "map delimiters"},
		{"identical spat delimiters", PlaybackConfig{SPaTStart: str("|"), SPaTEnd: str("|")}, "spat delimiters"},
		{"unknown resolution", PlaybackConfig{TimeResolution: str("guess")}, "time resolution"},
		{"unknown log level", PlaybackConfig{LogLevel: str("loud")}, "log_level"},
		{"port out of range", PlaybackConfig{UDPPort: num(70000)}, "udp_port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	path := writeConfig(t, "env.json", `{"lane_id": 9}`)
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	lane, _ := cfg.GetLaneID()
	assert.Equal(t, 9, lane)
	assert.Equal(t, "warn", cfg.GetLogLevel())

	t.Setenv(EnvLogLevel, "shouty")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvLogLevel)
}

func TestLoadExplicitPathWins(t *testing.T) {
	envPath := writeConfig(t, "env.json", `{"lane_id": 9}`)
	flagPath := writeConfig(t, "flag.json", `{"lane_id": 3, "log_level": "error"}`)
	t.Setenv(EnvConfigPath, envPath)
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(flagPath)
	require.NoError(t, err)
	lane, _ := cfg.GetLaneID()
	assert.Equal(t, 3, lane)
	assert.Equal(t, "error", cfg.GetLogLevel(), "file value beats the environment")
}

func TestLoadWithoutAnySource(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvLogLevel, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &PlaybackConfig{}, cfg)
}

func TestLoadEnv(t *testing.T) {
	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := writeConfig(t, "test.env", "SPAT_TEST_DOTENV=lane5\n")
	t.Setenv("SPAT_TEST_DOTENV", "")
	os.Unsetenv("SPAT_TEST_DOTENV")
	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "lane5", os.Getenv("SPAT_TEST_DOTENV"))
}
