package config

import (
	"errors"

	"github.com/banshee-data/spat.report/internal/playback"
)

// ErrLaneRequired is returned when neither the file nor the flags name a lane.
var ErrLaneRequired = errors.New("lane is required")

// PlaybackOptions converts the config into session options.
func (c *PlaybackConfig) PlaybackOptions() (playback.Options, error) {
	lane, ok := c.GetLaneID()
	if !ok {
		return playback.Options{}, ErrLaneRequired
	}
	return playback.Options{
		LaneID:      lane,
		Rate:        c.GetRate(),
		SyncTime:    c.GetSyncTime(),
		SyncMin:     c.GetSyncMin(),
		SyncMax:     c.GetSyncMax(),
		MapScanner:  c.MapScanner(),
		SPaTScanner: c.SPaTScanner(),
		Resolution:  c.GetTimeResolution(),
	}, nil
}
