package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfig signals invalid or missing configuration. Fatal before any location is processed.
	ErrConfig = errors.New("config error")
	// ErrParse signals a malformed input entry that was skipped.
	ErrParse = errors.New("parse warning")
	// ErrRateLimited signals an upstream throttling response (HTTP 429 or provider equivalent).
	ErrRateLimited = errors.New("rate limited")
	// ErrTransient signals a retryable upstream failure (5xx, network error, attempt timeout).
	ErrTransient = errors.New("transient upstream failure")
	// ErrUpstream signals a non-retryable upstream failure (bad query, auth failure).
	ErrUpstream = errors.New("upstream error")
	// ErrExhaustedRetries signals that the retry budget was spent.
	ErrExhaustedRetries = errors.New("exhausted retries")
	// ErrCacheCorrupt signals an unreadable cache file.
	ErrCacheCorrupt = errors.New("cache corrupt")
)

// ThrottleError wraps ErrRateLimited with the provider's retry hint, if any.
type ThrottleError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: %s (retry after %s)", e.Provider, ErrRateLimited.Error(), e.RetryAfter)
	}
	return fmt.Sprintf("%s: %s", e.Provider, ErrRateLimited.Error())
}

func (e *ThrottleError) Unwrap() error { return ErrRateLimited }

// UpstreamError wraps ErrUpstream with the HTTP status and response detail.
type UpstreamError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s %d: %s", e.Provider, ErrUpstream.Error(), e.Status, e.Detail)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// ExhaustedError wraps ErrExhaustedRetries with the attempt count and the last failure.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrExhaustedRetries.Error(), e.Attempts, e.Last)
}

// Unwrap exposes both the sentinel and the last attempt error to errors.Is/As.
func (e *ExhaustedError) Unwrap() []error { return []error{ErrExhaustedRetries, e.Last} }

// NewConfigError wraps a message with ErrConfig.
func NewConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
