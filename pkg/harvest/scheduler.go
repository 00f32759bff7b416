package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch scheduler configuration.
type Config struct {
	// MaxConcurrency is the batch size and therefore the peak number of
	// entries attempted at once.
	MaxConcurrency int

	// Retry bounds the attempts per entry.
	Retry RetryPolicy
}

// DefaultConfig returns the scheduler defaults: batches of 15, default retry policy.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 15,
		Retry:          DefaultRetryPolicy(),
	}
}

// Result is what a completed (or run-level failed) run produced.
type Result[R any] struct {
	// Items holds successful records in completion order.
	Items []Item[R]

	// Failures holds the records appended to the sink during this run.
	Failures []FailureRecord

	// Batches is the number of batches whose barrier was reached.
	Batches int

	Duration time.Duration
}

// Records returns the successful records without their entries.
func (r *Result[R]) Records() []R {
	records := make([]R, len(r.Items))
	for i, it := range r.Items {
		records[i] = it.Record
	}
	return records
}

// ByEntry maps each entry to its record. Duplicate entries keep the last record.
func (r *Result[R]) ByEntry() map[string]R {
	m := make(map[string]R, len(r.Items))
	for _, it := range r.Items {
		m[it.Entry] = it.Record
	}
	return m
}

// Scheduler drives batches strictly one after another, running every entry of
// a batch concurrently and waiting for all of them before the next batch.
type Scheduler[R any] struct {
	adapter  Adapter[R]
	sink     Sink
	executor *Executor[R]
	config   Config
	logger   zerolog.Logger
}

// NewScheduler creates a scheduler. Zero config values take defaults;
// negative ones are a ConfigurationError.
func NewScheduler[R any](adapter Adapter[R], sink Sink, config Config) (*Scheduler[R], error) {
	if sink == nil {
		return nil, ConfigurationError("error sink is required")
	}

	defaults := DefaultConfig()
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.MaxConcurrency < 1 {
		return nil, ConfigurationError("max concurrency must be >= 1 (got %d)", config.MaxConcurrency)
	}
	if config.Retry == (RetryPolicy{}) {
		config.Retry = defaults.Retry
	}

	executor, err := NewExecutor(adapter, config.Retry)
	if err != nil {
		return nil, err
	}

	return &Scheduler[R]{
		adapter:  adapter,
		sink:     sink,
		executor: executor,
		config:   config,
		logger:   log.With().Str("component", "batch-scheduler").Logger(),
	}, nil
}

// Run processes every entry and returns once the last batch's barrier is
// reached. Without a returned error, every entry is in exactly one of
// Result.Items or Result.Failures. A returned error is run-level
// (identifier encoding or sink); the partial Result then covers only the
// batches that completed and carries no accounting guarantee.
func (s *Scheduler[R]) Run(ctx context.Context, entries []string) (*Result[R], error) {
	start := time.Now()
	result := &Result[R]{}

	if v, ok := s.adapter.(Validator); ok {
		for _, entry := range entries {
			if err := v.Validate(entry); err != nil {
				s.logger.Error().Err(err).Str("entry", entry).Msg("Entry rejected before dispatch")
				return result, asKind(err, KindIdentifierEncoding, entry)
			}
		}
	}

	batches, err := Partition(entries, s.config.MaxConcurrency)
	if err != nil {
		return result, err
	}

	s.logger.Info().
		Int("entries", len(entries)).
		Int("batches", len(batches)).
		Int("max_concurrency", s.config.MaxConcurrency).
		Int("max_attempts", s.config.Retry.MaxAttempts).
		Msg("Starting run")

	collector := NewCollector[R]()
	var failuresMu sync.Mutex

	for i, batch := range batches {
		batchStart := time.Now()
		batchesTotal.Inc()

		// No shared context cancellation: a failing entry never stops its siblings.
		var g errgroup.Group
		for _, entry := range batch {
			g.Go(func() error {
				inflightEntries.Inc()
				out := s.executor.Execute(ctx, entry)
				inflightEntries.Dec()

				switch out.State {
				case StateSucceeded:
					collector.Append(entry, out.Record)
					entriesTotal.WithLabelValues("success").Inc()
					return nil
				case StateFailed:
					if err := s.sink.Append(ctx, *out.Failure); err != nil {
						entriesTotal.WithLabelValues("aborted").Inc()
						return asKind(err, KindSink, "")
					}
					failuresMu.Lock()
					result.Failures = append(result.Failures, *out.Failure)
					failuresMu.Unlock()
					entriesTotal.WithLabelValues("failed").Inc()
					s.logger.Warn().
						Str("entry", entry).
						Str("error_kind", string(out.Failure.Kind)).
						Int("attempts", out.Attempts).
						Msg("Entry exhausted retries")
					return nil
				default:
					entriesTotal.WithLabelValues("aborted").Inc()
					return out.Err
				}
			})
		}

		err := g.Wait()
		batchDuration.Observe(time.Since(batchStart).Seconds())
		result.Batches = i + 1

		if err != nil {
			result.Items = collector.Items()
			result.Duration = time.Since(start)
			s.logger.Error().
				Err(err).
				Int("batch", i+1).
				Int("batches", len(batches)).
				Msg("Run aborted")
			return result, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}

		s.logger.Info().
			Int("batch", i+1).
			Int("batches", len(batches)).
			Int("succeeded", collector.Len()).
			Int("failed", len(result.Failures)).
			Dur("duration", time.Since(batchStart)).
			Msg("Batch complete")
	}

	result.Items = collector.Items()
	result.Duration = time.Since(start)

	s.logger.Info().
		Int("entries", len(entries)).
		Int("succeeded", len(result.Items)).
		Int("failed", len(result.Failures)).
		Dur("duration", result.Duration).
		Msg("Run complete")

	return result, nil
}

// asKind keeps err if it is already classified, otherwise wraps it as kind.
func asKind(err error, kind Kind, entry string) error {
	var he *Error
	if errors.As(err, &he) {
		return err
	}
	switch kind {
	case KindSink:
		return SinkError("append failure record", err)
	case KindIdentifierEncoding:
		return IdentifierError(entry, err)
	default:
		return &Error{Kind: kind, Entry: entry, Err: err}
	}
}
