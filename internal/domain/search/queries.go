package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/placescout/internal/domain/location"
)

// maxKeyTerms is how many name words are appended to the key-term query.
const maxKeyTerms = 3

// orgMarkers are substrings that mark a name word as an organization.
var orgMarkers = []string{"Inc", "Corp", "LLC", "Ltd", "Company", "Association"}

// BuildQueries generates the search strings for a location.
func BuildQueries(loc location.Location, maxResults int) Query {
	name := strings.TrimSpace(loc.Name())
	terms := []string{name + " location history"}

	kt := KeyTerms(name)
	for _, org := range Organizations(kt) {
		terms = append(terms, org+" "+name+" development")
	}

	if len(kt) > 0 {
		if len(kt) > maxKeyTerms {
			kt = kt[:maxKeyTerms]
		}
		terms = append(terms, name+" "+strings.Join(kt, " "))
	}

	if loc.HasCoordinates() {
		terms = append(terms, fmt.Sprintf("location near %s,%s",
			trimFloat(loc.Latitude()), trimFloat(loc.Longitude())))
	}

	return Query{Terms: uniq(terms), MaxResults: maxResults}
}

// KeyTerms splits a name into words longer than two runes.
func KeyTerms(name string) []string {
	var out []string
	for _, w := range strings.Fields(name) {
		if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// Organizations returns the words that look like organization names, in order.
// Matching is case-sensitive substring search, so "Incline" counts.
func Organizations(words []string) []string {
	var out []string
	for _, w := range words {
		if isOrganization(w) {
			out = append(out, w)
		}
	}
	return out
}

func isOrganization(word string) bool {
	for _, m := range orgMarkers {
		if strings.Contains(word, m) {
			return true
		}
	}
	return false
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
