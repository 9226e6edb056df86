// Package fetch performs outbound queries with rate limiting and retry.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/logger"
	"github.com/kailas-cloud/placescout/internal/metrics"
	"github.com/kailas-cloud/placescout/internal/usagelog"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Call is one attempt against an upstream.
type Call func(ctx context.Context) error

// Counters are the attempt totals of one Retrier.
type Counters struct {
	Attempts  int64
	Succeeded int64
	Throttled int64
	Transient int64
	Failed    int64
	Exhausted int64
}

// Retrier drives the retry state machine for one upstream. Safe for
// concurrent use; the limiter paces all callers together.
type Retrier struct {
	kind    domain.QueryKind
	policy  RetryPolicy
	limiter *rate.Limiter
	sleep   Sleeper
	rand    func() float64
	now     func() time.Time
	usage   usagelog.Recorder
	metrics *metrics.Metrics
	logger  *zap.Logger

	attempts, succeeded, throttled, transient, failed, exhausted atomic.Int64
}

// RetrierOption customizes a Retrier.
type RetrierOption func(*Retrier)

// WithSleeper replaces the real sleep.
func WithSleeper(s Sleeper) RetrierOption { return func(r *Retrier) { r.sleep = s } }

// WithRand replaces the jitter source.
func WithRand(f func() float64) RetrierOption { return func(r *Retrier) { r.rand = f } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RetrierOption { return func(r *Retrier) { r.now = now } }

// WithLimiter paces attempts. nil disables pacing.
func WithLimiter(l *rate.Limiter) RetrierOption { return func(r *Retrier) { r.limiter = l } }

// WithUsage records every attempt.
func WithUsage(u usagelog.Recorder) RetrierOption { return func(r *Retrier) { r.usage = u } }

// WithMetrics records attempt and duration metrics.
func WithMetrics(m *metrics.Metrics) RetrierOption { return func(r *Retrier) { r.metrics = m } }

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) RetrierOption { return func(r *Retrier) { r.logger = l } }

// NewRetrier creates a Retrier for one query kind.
func NewRetrier(kind domain.QueryKind, policy RetryPolicy, opts ...RetrierOption) *Retrier {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	r := &Retrier{
		kind:   kind,
		policy: policy,
		sleep:  sleepCtx,
		rand:   rand.Float64,
		now:    time.Now,
		usage:  usagelog.Nop{},
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewLimiter returns a limiter allowing rps requests per second with a
// burst of one. rps <= 0 disables pacing.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Do runs call until it succeeds, fails permanently or the attempt budget is
// spent. Exhaustion returns *domain.ExhaustedError; a non-retryable failure
// is returned wrapped with domain.ErrUpstream.
func (r *Retrier) Do(ctx context.Context, key string, call Call) error {
	start := r.now()
	defer func() {
		if r.metrics != nil {
			r.metrics.FetchDuration.WithLabelValues(r.kind.String()).Observe(r.now().Sub(start).Seconds())
		}
	}()

	log := r.log(ctx).With(zap.String("kind", r.kind.String()), zap.String("key", key))

	var (
		state   = Next(StateIdle, OutcomeNone, 0, r.policy.MaxAttempts)
		attempt int
		lastErr error
		wait    time.Duration
	)

	for {
		switch state {
		case StateAttempting:
			attempt++
			if err := r.pace(ctx); err != nil {
				return fmt.Errorf("%s fetch: %w", r.kind, err)
			}

			began := r.now()
			lastErr = r.attempt(ctx, call)
			if ctx.Err() != nil {
				r.record(key, attempt, OutcomeFatal, lastErr, r.now().Sub(began))
				return fmt.Errorf("%s fetch: %w", r.kind, ctx.Err())
			}

			outcome := Classify(lastErr)
			r.record(key, attempt, outcome, lastErr, r.now().Sub(began))
			state = Next(state, outcome, attempt, r.policy.MaxAttempts)

			if state == StateBackoff {
				wait = r.policy.Delay(attempt, r.rand())
				var te *domain.ThrottleError
				if errors.As(lastErr, &te) {
					wait = r.policy.withHint(wait, te.RetryAfter)
				}
				log.Debug("Attempt failed, backing off",
					zap.Int("attempt", attempt),
					zap.Stringer("outcome", outcome),
					zap.Duration("wait", wait),
					zap.Error(lastErr),
				)
			}

		case StateBackoff:
			if err := r.sleep(ctx, wait); err != nil {
				return fmt.Errorf("%s fetch backoff: %w", r.kind, err)
			}
			state = Next(state, OutcomeNone, attempt, r.policy.MaxAttempts)

		case StateSucceeded:
			r.succeeded.Add(1)
			return nil

		case StateExhausted:
			r.exhausted.Add(1)
			log.Warn("Retries exhausted", zap.Int("attempts", attempt), zap.Error(lastErr))
			return &domain.ExhaustedError{Attempts: attempt, Last: lastErr}

		default:
			if errors.Is(lastErr, domain.ErrUpstream) {
				return lastErr
			}
			return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, r.kind, lastErr)
		}
	}
}

// Counters returns a snapshot of the attempt totals.
func (r *Retrier) Counters() Counters {
	return Counters{
		Attempts:  r.attempts.Load(),
		Succeeded: r.succeeded.Load(),
		Throttled: r.throttled.Load(),
		Transient: r.transient.Load(),
		Failed:    r.failed.Load(),
		Exhausted: r.exhausted.Load(),
	}
}

func (r *Retrier) attempt(ctx context.Context, call Call) error {
	if r.policy.AttemptTimeout <= 0 {
		return call(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, r.policy.AttemptTimeout)
	defer cancel()

	err := call(actx)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: attempt timed out after %s: %w", domain.ErrTransient, r.policy.AttemptTimeout, err)
	}
	return err
}

func (r *Retrier) pace(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (r *Retrier) record(key string, attempt int, o Outcome, err error, d time.Duration) {
	r.attempts.Add(1)
	var label string
	switch o {
	case OutcomeSuccess:
		label = usagelog.OutcomeSuccess
	case OutcomeThrottled:
		r.throttled.Add(1)
		label = usagelog.OutcomeThrottled
	case OutcomeTransient:
		r.transient.Add(1)
		label = usagelog.OutcomeTransient
	default:
		r.failed.Add(1)
		label = usagelog.OutcomeFailed
	}

	r.usage.Record(usagelog.Entry{
		Timestamp: r.now(),
		Kind:      r.kind,
		Key:       key,
		Attempt:   attempt,
		Outcome:   label,
		Status:    statusOf(err),
		Duration:  d,
		Err:       err,
	})
	if r.metrics != nil {
		r.metrics.FetchAttempts.WithLabelValues(r.kind.String(), label).Inc()
	}
}

func (r *Retrier) log(ctx context.Context) *zap.Logger {
	if l := logger.FromContext(ctx); l.Core().Enabled(zap.FatalLevel) {
		return l
	}
	return r.logger
}

func statusOf(err error) int {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	var te *domain.ThrottleError
	if errors.As(err, &te) {
		return 429
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
