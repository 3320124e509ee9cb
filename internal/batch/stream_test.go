package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T, R any](t *testing.T, events <-chan Event[T, R]) []Event[T, R] {
	t.Helper()
	var out []Event[T, R]
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not finish")
			return out
		}
	}
}

func TestStreamContinuesPastFailures(t *testing.T) {
	urls := []string{"https://a.test", "https://b.test", "https://c.test", "https://d.test", "https://e.test"}
	attempts := 0
	fn := func(_ context.Context, i int, url string) (string, error) {
		if i == 2 {
			attempts++
			return "", errors.New("Failed to fetch website: 500")
		}
		return "page " + url, nil
	}

	opts := Options{Retries: 5, MinTimeout: time.Millisecond, MaxTimeout: 2 * time.Millisecond}
	events := collect(t, Stream(context.Background(), urls, fn, opts))

	require.Len(t, events, 1+2*len(urls)+1)
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, 5, events[0].Total)

	var progress []Event[string, string]
	for i, ev := range events[1 : len(events)-1] {
		if i%2 == 0 {
			assert.Equal(t, EventProcessing, ev.Type)
			require.NotNil(t, ev.Item)
			assert.Equal(t, urls[ev.Index], *ev.Item)
			continue
		}
		assert.Equal(t, EventProgress, ev.Type)
		progress = append(progress, ev)
	}
	require.Len(t, progress, 5)
	for i, ev := range progress {
		assert.Equal(t, i, ev.Index)
		if i == 2 {
			assert.True(t, ev.Failed())
			assert.Nil(t, ev.Result)
			assert.Equal(t, "Failed to fetch website: 500", ev.Error)
			continue
		}
		require.NotNil(t, ev.Result)
		assert.Equal(t, "page "+urls[i], *ev.Result)
	}

	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Type)
	assert.Equal(t, 5, last.Processed)
	assert.Equal(t, 1, last.Errors)
	assert.Equal(t, 6, attempts)
}

func TestStreamEmpty(t *testing.T) {
	events := collect(t, Stream(context.Background(), []int{}, func(context.Context, int, int) (int, error) {
		return 0, nil
	}, Options{}))

	require.Len(t, events, 2)
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, EventComplete, events[1].Type)
	assert.Equal(t, 0, events[1].Processed)
}

func TestStreamStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := Stream(ctx, []int{1, 2, 3}, func(context.Context, int, int) (int, error) {
		return 1, nil
	}, Options{})

	first := <-events
	assert.Equal(t, EventStarted, first.Type)
	cancel()

	for ev := range events {
		assert.NotEqual(t, EventComplete, ev.Type)
	}
}
