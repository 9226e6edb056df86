package fetch

import (
	"math"
	"time"
)

// RetryPolicy bounds the retry loop.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	Jitter         float64 // fraction of the delay that may be shaved off, 0..1
	AttemptTimeout time.Duration
}

// DefaultPolicy returns the default policy.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    4,
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2,
		Jitter:         0.5,
		AttemptTimeout: 20 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based). rnd is a
// uniform sample in [0, 1); the result lies in [(1-Jitter)*d, d] where
// d = min(MaxDelay, BaseDelay*Multiplier^(attempt-1)).
func (p RetryPolicy) Delay(attempt int, rnd float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if maxD := float64(p.MaxDelay); p.MaxDelay > 0 && d > maxD {
		d = maxD
	}
	d *= 1 - p.Jitter*rnd
	return time.Duration(d)
}

// withHint raises d to a provider retry hint, capped at MaxDelay.
func (p RetryPolicy) withHint(d, hint time.Duration) time.Duration {
	if hint <= d {
		return d
	}
	if p.MaxDelay > 0 && hint > p.MaxDelay {
		return p.MaxDelay
	}
	return hint
}
