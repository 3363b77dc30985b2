package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const coordinateMarker = "/@"

// CoordinateParseError reports a location string without a usable
// "/@lat,lon" segment.
type CoordinateParseError struct {
	Raw    string
	Reason string
}

func (e *CoordinateParseError) Error() string {
	return fmt.Sprintf("extract coordinates from %q: %s", e.Raw, e.Reason)
}

// ParseCoordinates extracts latitude and longitude from a map URL such as
// ".../place/Foo/@40.7128,-74.0060,17z/data=...". The first two
// comma-separated fields after the last "/@" are used.
func ParseCoordinates(raw string) (lat, lon float64, err error) {
	idx := strings.LastIndex(raw, coordinateMarker)
	if idx < 0 {
		return 0, 0, &CoordinateParseError{Raw: raw, Reason: "missing " + coordinateMarker + " segment"}
	}

	segment := raw[idx+len(coordinateMarker):]
	if slash := strings.Index(segment, "/"); slash >= 0 {
		segment = segment[:slash]
	}

	parts := strings.Split(segment, ",")
	if len(parts) < 2 {
		return 0, 0, &CoordinateParseError{Raw: raw, Reason: "fewer than two components"}
	}

	if lat, err = parseDecimal(parts[0]); err != nil {
		return 0, 0, &CoordinateParseError{Raw: raw, Reason: "latitude: " + err.Error()}
	}
	if lon, err = parseDecimal(parts[1]); err != nil {
		return 0, 0, &CoordinateParseError{Raw: raw, Reason: "longitude: " + err.Error()}
	}
	return lat, lon, nil
}

func parseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
