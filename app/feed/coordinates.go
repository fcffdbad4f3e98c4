package feed

import (
	"math"
	"strconv"
	"strings"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + ";" + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// ParseCoordinates reads a "lat;lon" pair. Latitude must be within [-90, 90]
// and longitude within [-180, 180].
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 2 {
		return Coordinates{}, &InvalidCoordinatesError{Input: s, Reason: `expected "latitude;longitude"`}
	}

	lat, err := parseDegrees(parts[0])
	if err != nil {
		return Coordinates{}, &InvalidCoordinatesError{Input: s, Reason: "latitude is not a number"}
	}
	if lat < -90 || lat > 90 {
		return Coordinates{}, &InvalidCoordinatesError{Input: s, Reason: "latitude out of range [-90, 90]"}
	}

	lon, err := parseDegrees(parts[1])
	if err != nil {
		return Coordinates{}, &InvalidCoordinatesError{Input: s, Reason: "longitude is not a number"}
	}
	if lon < -180 || lon > 180 {
		return Coordinates{}, &InvalidCoordinatesError{Input: s, Reason: "longitude out of range [-180, 180]"}
	}

	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

func parseDegrees(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
