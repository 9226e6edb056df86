// Package location defines the named geographic point read from the KML input.
package location

import "fmt"

// UnknownName is used for placemarks without a name.
const UnknownName = "Unknown Location"

// Location is a named point with optional coordinates and extended attributes.
// Immutable once built; identity is positional (Index).
type Location struct {
	index      int
	name       string
	latitude   float64
	longitude  float64
	hasCoords  bool
	attributes map[string]string
}

// New creates a location without coordinates.
func New(index int, name string, attrs map[string]string) Location {
	if name == "" {
		name = UnknownName
	}
	cp := make(map[string]string, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return Location{index: index, name: name, attributes: cp}
}

// NewWithCoordinates creates a location with a coordinate pair.
func NewWithCoordinates(index int, name string, lat, lon float64, attrs map[string]string) Location {
	l := New(index, name, attrs)
	l.latitude = lat
	l.longitude = lon
	l.hasCoords = true
	return l
}

// Index returns the position of the placemark in the source sequence.
func (l Location) Index() int { return l.index }

// Name returns the placemark name.
func (l Location) Name() string { return l.name }

// Latitude returns the latitude in degrees (zero without coordinates).
func (l Location) Latitude() float64 { return l.latitude }

// Longitude returns the longitude in degrees (zero without coordinates).
func (l Location) Longitude() float64 { return l.longitude }

// HasCoordinates reports whether a coordinate pair was read.
func (l Location) HasCoordinates() bool { return l.hasCoords }

// Attribute returns a single extended-data value.
func (l Location) Attribute(key string) (string, bool) {
	v, ok := l.attributes[key]
	return v, ok
}

// Attributes returns a copy of the extended-data attributes.
func (l Location) Attributes() map[string]string {
	cp := make(map[string]string, len(l.attributes))
	for k, v := range l.attributes {
		cp[k] = v
	}
	return cp
}

func (l Location) String() string {
	if !l.hasCoords {
		return l.name
	}
	return fmt.Sprintf("%s (%.4f, %.4f)", l.name, l.latitude, l.longitude)
}
