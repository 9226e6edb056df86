// Package fingerprint derives stable cache keys from query parameters.
//
// Keys are "<kind>:<sha256 hex>" over a length-prefixed serialization of the
// normalized parameters in fixed field order. Coordinates are bucketed by
// rounding to DefaultPrecision decimal places, not by geographic distance.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/geo"
)

// DefaultPrecision is the number of decimal places coordinates are rounded to
// (about 11 m of latitude).
const DefaultPrecision = 4

const dateLayout = "2006-01-02"

// Key is an opaque deterministic cache key.
type Key string

// String implements fmt.Stringer.
func (k Key) String() string { return string(k) }

// Coordinates is an optional coordinate pair for search keys.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// NormalizeName trims, collapses inner whitespace and case-folds a place name.
// A Caser is not safe for concurrent use, so each call builds its own.
func NormalizeName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// Search fingerprints a web search for a place name and optional coordinates.
func Search(name string, coords *Coordinates) Key {
	fields := []string{NormalizeName(name)}
	if coords != nil {
		fields = append(fields,
			geo.FormatBucket(coords.Latitude, DefaultPrecision),
			geo.FormatBucket(coords.Longitude, DefaultPrecision),
		)
	}
	return build(domain.KindSearch, fields)
}

// Contract fingerprints a contract search around a point. An explicit time
// window participates in the key; the rolling default window does not.
func Contract(lat, lon, radiusMiles float64, window contract.TimeWindow) Key {
	fields := []string{
		geo.FormatBucket(lat, DefaultPrecision),
		geo.FormatBucket(lon, DefaultPrecision),
		strconv.FormatFloat(radiusMiles, 'f', -1, 64),
		formatDate(window.Start),
		formatDate(window.End),
	}
	return build(domain.KindContract, fields)
}

func build(kind domain.QueryKind, fields []string) Key {
	var b strings.Builder
	b.WriteString(string(kind))
	for _, f := range fields {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
	}
	h := sha256.Sum256([]byte(b.String()))
	return Key(string(kind) + ":" + hex.EncodeToString(h[:]))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
