// Package search defines web search result records and query generation.
package search

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Query is a logical web search for one location: several query strings,
// each capped at MaxResults.
type Query struct {
	Terms      []string
	MaxResults int
}

// Dedupe removes results with a link already seen, keeping the first occurrence.
// Results without a link are kept.
func Dedupe(results []Result) []Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Link != "" {
			if _, ok := seen[r.Link]; ok {
				continue
			}
			seen[r.Link] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
