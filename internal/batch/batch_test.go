package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(retries int) Options {
	return Options{
		Concurrency: 2,
		Retries:     retries,
		MinTimeout:  time.Millisecond,
		MaxTimeout:  4 * time.Millisecond,
	}
}

func TestProcessKeepsOrderAndBoundsConcurrency(t *testing.T) {
	items := []int{5, 1, 4, 2, 3, 0, 6, 7}

	var inFlight, peak int32
	double := func(_ context.Context, _ int, n int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Duration(n) * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return n * 2, nil
	}

	var progress []int
	opts := fastOptions(0)
	opts.OnProgress = func(completed, total int) {
		assert.Equal(t, len(items), total)
		progress = append(progress, completed)
	}

	results, err := Process(context.Background(), items, double, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 2, 8, 4, 6, 0, 12, 14}, results)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, progress)
}

func TestProcessRetriesTransientFailures(t *testing.T) {
	var mu sync.Mutex
	calls := map[int]int{}
	flaky := func(_ context.Context, i int, s string) (string, error) {
		mu.Lock()
		calls[i]++
		n := calls[i]
		mu.Unlock()
		if i == 1 && n < 3 {
			return "", errors.New("status 429: rate limit")
		}
		return s + "!", nil
	}

	results, err := Process(context.Background(), []string{"a", "b", "c"}, flaky, fastOptions(7))
	require.NoError(t, err)
	assert.Equal(t, []string{"a!", "b!", "c!"}, results)
	assert.Equal(t, 3, calls[1])
	assert.Equal(t, 1, calls[0])
}

func TestProcessFailsWhenRetriesExhaust(t *testing.T) {
	var calls int32
	fn := func(_ context.Context, i int, n int) (int, error) {
		if i == 2 {
			atomic.AddInt32(&calls, 1)
			return 0, fmt.Errorf("upstream returned 500")
		}
		return n, nil
	}

	results, err := Process(context.Background(), []int{10, 20, 30, 40}, fn, fastOptions(3))
	require.Error(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []int{10, 20, 0, 40}, results)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 2, itemErr.Index)
	assert.Equal(t, 4, itemErr.Attempts)
	assert.Contains(t, err.Error(), "upstream returned 500")
}

func TestProcessStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(ctx context.Context, _ int, _ int) (int, error) {
		cancel()
		return 0, ctx.Err()
	}

	opts := fastOptions(7)
	opts.MinTimeout = time.Hour
	opts.MaxTimeout = time.Hour

	done := make(chan struct{})
	go func() {
		_, err := Process(ctx, []int{1}, fn, opts)
		assert.ErrorIs(t, err, context.Canceled)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Process did not return after cancellation")
	}
}

func TestProcessEmpty(t *testing.T) {
	results, err := Process(context.Background(), nil, func(context.Context, int, int) (int, error) {
		return 0, errors.New("never called")
	}, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDefaultOptions(t *testing.T) {
	def := DefaultOptions()
	assert.Equal(t, 2, def.Concurrency)
	assert.Equal(t, 7, def.Retries)
	assert.Equal(t, 2*time.Second, def.MinTimeout)
	assert.Equal(t, 128*time.Second, def.MaxTimeout)

	stream := DefaultStreamOptions()
	assert.Equal(t, 1, stream.Concurrency)
	assert.Equal(t, 5, stream.Retries)
	assert.Equal(t, time.Second, stream.MinTimeout)
	assert.Equal(t, 15*time.Second, stream.MaxTimeout)
}

func TestBackOffDoublesUpToCap(t *testing.T) {
	opts := Options{Retries: 7, MinTimeout: 2 * time.Second, MaxTimeout: 128 * time.Second}.withDefaults(DefaultOptions())
	b := opts.backOff(context.Background())

	var waits []time.Duration
	for {
		next := b.NextBackOff()
		if next < 0 {
			break
		}
		waits = append(waits, next)
	}
	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
		32 * time.Second, 64 * time.Second, 128 * time.Second,
	}, waits)
}

func TestPermanentErrorsAreNotRetried(t *testing.T) {
	calls := 0
	fn := func(context.Context, int, string) (string, error) {
		calls++
		return "", Permanent(errors.New("invalid URL"))
	}

	_, err := Process(context.Background(), []string{"not a url"}, fn, fastOptions(7))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "invalid URL")
}
