// Package geo holds coordinate validation and bucketing helpers.
package geo

import (
	"math"
	"strconv"
)

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // collapse -0
	}
	return r
}

// FormatBucket renders v rounded to places decimals with a fixed number of digits,
// so equal buckets always produce identical text.
func FormatBucket(v float64, places int) string {
	return strconv.FormatFloat(Round(v, places), 'f', places, 64)
}
