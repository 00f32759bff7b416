package harvest

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RetryPolicy bounds how often one entry is attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// A value of 1 disables retrying.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt. Zero retries immediately.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after every failed attempt.
	BackoffMultiplier float64

	// Jitter is the relative randomness applied to each wait (0.2 = ±20%).
	Jitter float64
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

func (p RetryPolicy) validate() error {
	if p.MaxAttempts < 1 {
		return ConfigurationError("max attempts must be >= 1 (got %d)", p.MaxAttempts)
	}
	if p.InitialBackoff < 0 || p.MaxBackoff < 0 {
		return ConfigurationError("backoff durations must not be negative")
	}
	if p.InitialBackoff > 0 && p.BackoffMultiplier < 1 {
		return ConfigurationError("backoff multiplier must be >= 1 (got %v)", p.BackoffMultiplier)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return ConfigurationError("jitter must be in [0, 1) (got %v)", p.Jitter)
	}
	return nil
}

// State is the lifecycle position of one entry inside the executor.
type State int

const (
	StatePending State = iota
	StateAttempting
	StateSucceeded
	StateFailed
	// StateAborted marks a non-retryable, run-level failure.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	default:
		return "invalid"
	}
}

// FailureRecord is what the error sink persists for an exhausted entry.
type FailureRecord struct {
	Entry    string    `json:"entry"`
	Kind     Kind      `json:"kind"`
	Reason   string    `json:"reason"`
	Attempts int       `json:"attempts"`
	FailedAt time.Time `json:"failed_at"`
}

// Outcome is the terminal result of executing one entry.
type Outcome[R any] struct {
	Entry    string
	State    State
	Attempts int

	// Record is set when State is StateSucceeded.
	Record R

	// Failure is set when State is StateFailed.
	Failure *FailureRecord

	// Err is the last attempt's error for StateFailed and StateAborted.
	Err error
}

// Executor runs one adapter invocation under a retry policy. It never touches
// shared state; the caller routes the Outcome.
type Executor[R any] struct {
	adapter Adapter[R]
	policy  RetryPolicy
	logger  zerolog.Logger
	now     func() time.Time
}

// NewExecutor creates an executor. A zero BackoffMultiplier takes the
// default; the policy is then validated.
func NewExecutor[R any](adapter Adapter[R], policy RetryPolicy) (*Executor[R], error) {
	if adapter == nil {
		return nil, ConfigurationError("adapter is required")
	}
	if policy.BackoffMultiplier == 0 {
		policy.BackoffMultiplier = DefaultRetryPolicy().BackoffMultiplier
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}
	return &Executor[R]{
		adapter: adapter,
		policy:  policy,
		logger:  log.With().Str("component", "retry-executor").Logger(),
		now:     time.Now,
	}, nil
}

// Execute attempts entry until it succeeds, fails with a non-retryable error,
// or MaxAttempts is reached. Success short-circuits.
func (e *Executor[R]) Execute(ctx context.Context, entry string) Outcome[R] {
	out := Outcome[R]{Entry: entry, State: StatePending}
	backoff := e.policy.InitialBackoff

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		out.State = StateAttempting
		out.Attempts = attempt

		record, err := e.adapter.FetchAndParse(ctx, entry)
		if err == nil {
			attemptsTotal.WithLabelValues("success").Inc()
			if attempt > 1 {
				e.logger.Info().
					Str("entry", entry).
					Int("attempt", attempt).
					Msg("Entry succeeded after retry")
			}
			out.State = StateSucceeded
			out.Record = record
			out.Err = nil
			return out
		}

		kind := KindOf(err)
		out.Err = err
		attemptsTotal.WithLabelValues("failure").Inc()

		if !IsRetryable(kind) {
			e.logger.Error().
				Err(err).
				Str("entry", entry).
				Str("error_kind", string(kind)).
				Msg("Non-retryable failure, aborting entry")
			out.State = StateAborted
			return out
		}

		e.logger.Warn().
			Err(err).
			Str("entry", entry).
			Str("error_kind", string(kind)).
			Int("attempt", attempt).
			Int("max_attempts", e.policy.MaxAttempts).
			Msg("Attempt failed")

		if attempt >= e.policy.MaxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(kind)).Inc()
		if backoff > 0 {
			wait := e.jittered(backoff)
			retryBackoffSeconds.WithLabelValues(string(kind)).Observe(wait.Seconds())

			select {
			case <-ctx.Done():
				e.logger.Warn().
					Str("entry", entry).
					Int("attempt", attempt).
					Msg("Context ended during retry backoff")
				return e.fail(out)
			case <-time.After(wait):
			}

			backoff = time.Duration(float64(backoff) * e.policy.BackoffMultiplier)
			if e.policy.MaxBackoff > 0 && backoff > e.policy.MaxBackoff {
				backoff = e.policy.MaxBackoff
			}
		}
	}

	retryExhaustedTotal.WithLabelValues(string(KindOf(out.Err))).Inc()
	return e.fail(out)
}

func (e *Executor[R]) fail(out Outcome[R]) Outcome[R] {
	out.State = StateFailed
	out.Failure = &FailureRecord{
		Entry:    out.Entry,
		Kind:     KindOf(out.Err),
		Reason:   out.Err.Error(),
		Attempts: out.Attempts,
		FailedAt: e.now().UTC(),
	}
	return out
}

// jittered spreads d by ±Jitter so concurrent retries do not line up.
func (e *Executor[R]) jittered(d time.Duration) time.Duration {
	if e.policy.Jitter == 0 {
		return d
	}
	factor := 1 - e.policy.Jitter + rand.Float64()*2*e.policy.Jitter
	return time.Duration(float64(d) * factor)
}
