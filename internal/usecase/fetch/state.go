package fetch

import (
	"context"
	"errors"

	"github.com/kailas-cloud/placescout/internal/domain"
)

// State is a retry state machine state.
type State int

// Retry states. Succeeded, Exhausted and Failed are terminal.
const (
	StateIdle State = iota
	StateAttempting
	StateBackoff
	StateSucceeded
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted || s == StateFailed
}

// Outcome classifies a single attempt.
type Outcome int

// Attempt outcomes. OutcomeNone drives the non-attempt transitions
// (Idle -> Attempting, Backoff -> Attempting).
const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeThrottled
	OutcomeTransient
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeTransient:
		return "transient"
	case OutcomeFatal:
		return "failed"
	default:
		return "none"
	}
}

// Retryable reports whether the outcome may be retried.
func (o Outcome) Retryable() bool {
	return o == OutcomeThrottled || o == OutcomeTransient
}

// Next is the pure transition function. attempt is the number of attempts
// made so far and maxAttempts the policy bound.
func Next(s State, o Outcome, attempt, maxAttempts int) State {
	switch s {
	case StateIdle, StateBackoff:
		return StateAttempting
	case StateAttempting:
		switch {
		case o == OutcomeSuccess:
			return StateSucceeded
		case o.Retryable() && attempt >= maxAttempts:
			return StateExhausted
		case o.Retryable():
			return StateBackoff
		case o == OutcomeNone:
			return StateAttempting
		default:
			return StateFailed
		}
	default:
		return s
	}
}

// Classify maps an attempt error to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrRateLimited):
		return OutcomeThrottled
	case errors.Is(err, domain.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTransient
	default:
		return OutcomeFatal
	}
}
