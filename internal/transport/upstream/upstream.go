// Package upstream maps HTTP responses from third-party APIs onto the domain
// error taxonomy.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/placescout/internal/domain"
)

const maxDetail = 512

// CheckResponse returns nil for a 2xx response. Otherwise it drains the body
// and returns a *domain.ThrottleError for 429, an error wrapping
// domain.ErrTransient for 5xx and 408, and a *domain.UpstreamError for the rest.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.ThrottleError{Provider: provider, RetryAfter: ParseRetryAfter(resp.Header, time.Now())}
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %s status %d", domain.ErrTransient, provider, resp.StatusCode)
	default:
		return &domain.UpstreamError{Provider: provider, Status: resp.StatusCode, Detail: extractDetail(body)}
	}
}

// TransportError classifies an error returned by http.Client.Do. Context
// cancellation of the caller passes through unchanged; everything else is
// treated as transient.
func TransportError(ctx context.Context, provider string, err error) error {
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s request: %w", domain.ErrTransient, provider, err)
}

// ParseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func ParseRetryAfter(hdr http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(hdr.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// extractDetail pulls a message out of common JSON error bodies, falling back
// to the truncated raw body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Detail != "":
			return parsed.Detail
		case parsed.Message != "":
			return parsed.Message
		}
		switch e := parsed.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if d, ok := e["detail"].(string); ok && d != "" {
				return d
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetail {
		s = s[:maxDetail]
	}
	return s
}
