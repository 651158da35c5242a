// Package xmlpath provides schema-tolerant lookups over XER (XML) encoded
// J2735 records.
//
// Encoders from different roadside-unit vendors nest the same field under
// different wrappers, so every lookup here takes an ordered list of
// candidate paths and returns the first one that yields a value. Paths use
// the etree path syntax relative to the element passed in, e.g. "id/id" or
// ".//intersections/IntersectionState".
package xmlpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformed is returned when a record cannot be parsed as an XML document.
var ErrMalformed = errors.New("malformed record")

// Parse parses a single extracted record and returns its root element.
func Parse(record string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return root, nil
}

// Find returns the first element matching any of paths, tried in order.
func Find(el *etree.Element, paths ...string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, p := range paths {
		if found := el.FindElement(p); found != nil {
			return found
		}
	}
	return nil
}

// Text returns the trimmed leading text of the first element found at any of
// paths whose text is non-empty. An empty string means absent.
func Text(el *etree.Element, paths ...string) string {
	if el == nil {
		return ""
	}
	for _, p := range paths {
		found := el.FindElement(p)
		if found == nil {
			continue
		}
		if txt := strings.TrimSpace(found.Text()); txt != "" {
			return txt
		}
	}
	return ""
}

// Int parses the trimmed text at the first matching path as a base-10
// integer. Signed values are accepted; identifiers are not counters.
func Int(el *etree.Element, paths ...string) (int, bool) {
	txt := Text(el, paths...)
	if txt == "" {
		return 0, false
	}
	v, err := strconv.Atoi(txt)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Counter returns the first unsigned integer found in el's own text or, failing
// that, in the text of its descendants in document order. Counters such as
// timeStamp are sometimes wrapped in a unit-bearing child element.
func Counter(el *etree.Element) (int64, bool) {
	if el == nil {
		return 0, false
	}
	if v, ok := digits(el.Text()); ok {
		return v, true
	}
	for _, child := range el.ChildElements() {
		if v, ok := Counter(child); ok {
			return v, true
		}
	}
	return 0, false
}

// FirstCounter tries each path in order and returns the first counter found.
func FirstCounter(el *etree.Element, paths ...string) (int64, bool) {
	if el == nil {
		return 0, false
	}
	for _, p := range paths {
		if v, ok := Counter(el.FindElement(p)); ok {
			return v, true
		}
	}
	return 0, false
}

func digits(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
