// Package records splits a raw telemetry log into self-contained MAP and
// SPaT records.
//
// Extraction is lexical: a record is everything from a start marker up to and
// including the next end marker. No XML is decoded here, so concatenated
// records, unknown envelope tags and interleaved MAP/SPaT traffic are all
// tolerated.
package records

import (
	"errors"
	"iter"
	"strings"
)

// Default record delimiters used by XER log captures.
const (
	MapStart  = "<MapData>"
	MapEnd    = "</MapData>"
	SPaTStart = "<SPAT>"
	SPaTEnd   = "</SPAT>"
)

// Scanner finds records bounded by a start/end delimiter pair.
type Scanner struct {
	Start string
	End   string
}

// MapScanner returns a Scanner for intersection geometry records.
func MapScanner() Scanner { return Scanner{Start: MapStart, End: MapEnd} }

// SPaTScanner returns a Scanner for signal phase and timing records.
func SPaTScanner() Scanner { return Scanner{Start: SPaTStart, End: SPaTEnd} }

// Validate reports whether the delimiter pair is usable.
func (s Scanner) Validate() error {
	if s.Start == "" || s.End == "" {
		return errors.New("record delimiters must be non-empty")
	}
	if s.Start == s.End {
		return errors.New("record start and end delimiters must differ")
	}
	return nil
}

// All returns the records in text in order of appearance. The sequence is
// lazy and may be ranged over any number of times. A start marker with no
// matching end marker ends the sequence; the trailing text is discarded.
func (s Scanner) All(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s.Validate() != nil {
			return
		}
		pos := 0
		for {
			i := strings.Index(text[pos:], s.Start)
			if i < 0 {
				return
			}
			start := pos + i
			bodyStart := start + len(s.Start)
			j := strings.Index(text[bodyStart:], s.End)
			if j < 0 {
				return
			}
			end := bodyStart + j + len(s.End)
			if !yield(text[start:end]) {
				return
			}
			pos = end
		}
	}
}

// Count returns the number of complete records in text.
func (s Scanner) Count(text string) int {
	n := 0
	for range s.All(text) {
		n++
	}
	return n
}
