// Package batch runs independent, externally rate limited operations with
// retries. Process is the bounded-concurrency blocking mode, Stream the
// sequential mode that reports progress as it goes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/metrics"
)

// Func processes one item. index is the item's position in the input.
type Func[T, R any] func(ctx context.Context, index int, item T) (R, error)

// Options tunes a run. Retries counts the attempts made after the first one.
type Options struct {
	Concurrency int
	Retries     int
	MinTimeout  time.Duration
	MaxTimeout  time.Duration
	Factor      float64

	// OnProgress is called after each successful item with the running count.
	// Calls are serialised.
	OnProgress func(completed, total int)

	Logger *zap.Logger
}

// DefaultOptions are the blocking mode defaults: two in flight, seven
// retries backing off from 2s to 128s.
func DefaultOptions() Options {
	return Options{
		Concurrency: 2,
		Retries:     7,
		MinTimeout:  2 * time.Second,
		MaxTimeout:  128 * time.Second,
		Factor:      2,
	}
}

// DefaultStreamOptions are the streaming mode defaults: five retries
// backing off from 1s to 15s.
func DefaultStreamOptions() Options {
	return Options{
		Concurrency: 1,
		Retries:     5,
		MinTimeout:  time.Second,
		MaxTimeout:  15 * time.Second,
		Factor:      2,
	}
}

func (o Options) withDefaults(def Options) Options {
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.MinTimeout <= 0 {
		o.MinTimeout = def.MinTimeout
	}
	if o.MaxTimeout <= 0 {
		o.MaxTimeout = def.MaxTimeout
	}
	if o.MaxTimeout < o.MinTimeout {
		o.MaxTimeout = o.MinTimeout
	}
	if o.Factor < 1 {
		o.Factor = def.Factor
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.MinTimeout
	b.MaxInterval = o.MaxTimeout
	b.Multiplier = o.Factor
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.Retries)), ctx)
}

// ItemError is the final error of one item after its retries ran out.
type ItemError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d failed after %d attempts: %v", e.Index, e.Attempts, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying, e.g. an input that can never
// succeed. The item fails on its current attempt.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// retry runs fn until it succeeds, the retry budget is spent or ctx ends.
// Rate limit failures are reported separately but retried the same way.
func retry[T, R any](ctx context.Context, mode string, opts Options, index int, item T, fn Func[T, R]) (R, error) {
	var (
		result   R
		attempts int
	)
	op := func() error {
		attempts++
		r, err := fn(ctx, index, item)
		metrics.ObserveBatchAttempt(mode, err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		fields := []zap.Field{
			zap.String("mode", mode),
			zap.Int("index", index),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		}
		if apperr.IsRateLimitError(err) {
			metrics.ObserveRateLimit("batch_" + mode)
			opts.Logger.Warn("Batch item rate limited, backing off", fields...)
			return
		}
		opts.Logger.Warn("Batch item failed, retrying", fields...)
	}

	if err := backoff.RetryNotify(op, opts.backOff(ctx), notify); err != nil {
		var zero R
		return zero, &ItemError{Index: index, Attempts: attempts, Err: err}
	}
	return result, nil
}

// Process runs fn over items with at most opts.Concurrency calls in flight.
// The returned slice always has len(items) entries in input order. When any
// item exhausts its retries the error joins every failed item's *ItemError
// and the corresponding slots hold zero values; siblings still run to
// completion.
func Process[T, R any](ctx context.Context, items []T, fn Func[T, R], opts Options) ([]R, error) {
	opts = opts.withDefaults(DefaultOptions())
	results := make([]R, len(items))
	itemErrs := make([]error, len(items))

	var (
		mu        sync.Mutex
		completed int
	)

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			r, err := retry(ctx, "blocking", opts, i, item, fn)
			if err != nil {
				opts.Logger.Error("Batch item exhausted retries", zap.Int("index", i), zap.Error(err))
				itemErrs[i] = err
				return nil
			}
			results[i] = r

			mu.Lock()
			completed++
			if opts.OnProgress != nil {
				opts.OnProgress(completed, len(items))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(itemErrs...)
}
