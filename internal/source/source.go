// Package source loads telemetry text from logs on disk or from captured
// roadside-unit broadcasts.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/spat.report/internal/fsutil"
	"github.com/banshee-data/spat.report/internal/monitoring"
)

// ErrUnreadable wraps every failure to obtain input text.
var ErrUnreadable = errors.New("input unreadable")

var log = monitoring.Logger("source")

// Options configures Load.
type Options struct {
	// UDPPort keeps only capture payloads sent to or from this port. 0 keeps all.
	UDPPort int
}

// Load reads path through fsys. Files ending in .pcap or .pcapng are read as
// packet captures and their UDP payloads joined; anything else is read as
// text.
func Load(ctx context.Context, fsys fsutil.FileSystem, path string, opts Options) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcap", ".pcapng":
		f, err := fsys.Open(path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		defer f.Close()

		text, n, err := ReadPCAP(ctx, f, opts.UDPPort)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
		}
		log.WithField("payloads", n).Debugf("loaded capture %s", path)
		return text, nil
	default:
		return ReadText(fsys, path)
	}
}

// ReadText reads path as text. Invalid UTF-8 sequences are replaced rather
// than rejected.
func ReadText(fsys fsutil.FileSystem, path string) (string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return Sanitize(data), nil
}

// Sanitize converts raw bytes to text, replacing invalid UTF-8 with U+FFFD.
func Sanitize(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
