package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// RoundTripper wraps next and records outbound request count and latency
// under the given provider label. Transport errors are counted as "error".
func (m *Metrics) RoundTripper(provider string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		m.UpstreamLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.UpstreamTotal.WithLabelValues(provider, status).Inc()
		return resp, err //nolint:wrapcheck // delegating to the wrapped transport
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
