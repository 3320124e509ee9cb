package batch

import (
	"context"

	"go.uber.org/zap"
)

type EventType string

const (
	EventStarted    EventType = "started"
	EventProcessing EventType = "processing"
	EventProgress   EventType = "progress"
	EventComplete   EventType = "complete"
)

// Event is one step of a streaming run. Which fields are set depends on Type:
// started carries Total, processing carries Index and Item, progress carries
// Index and either Result or Error, complete carries Processed and Errors.
type Event[T, R any] struct {
	Type      EventType `json:"type"`
	Total     int       `json:"total,omitempty"`
	Index     int       `json:"index"`
	Item      *T        `json:"item,omitempty"`
	Result    *R        `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Errors    int       `json:"errors,omitempty"`
}

// Failed reports whether a progress event describes a failed item.
func (e Event[T, R]) Failed() bool {
	return e.Type == EventProgress && e.Error != ""
}

// Stream processes items one at a time and reports every step on the
// returned channel, which is closed after the complete event. A failing
// item is recorded in its progress event and does not stop the run.
// Cancelling ctx stops the run early without a complete event.
func Stream[T, R any](ctx context.Context, items []T, fn Func[T, R], opts Options) <-chan Event[T, R] {
	opts = opts.withDefaults(DefaultStreamOptions())
	events := make(chan Event[T, R], 1)

	go func() {
		defer close(events)

		emit := func(ev Event[T, R]) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(Event[T, R]{Type: EventStarted, Total: len(items)}) {
			return
		}

		failed := 0
		for i := range items {
			item := items[i]
			if !emit(Event[T, R]{Type: EventProcessing, Index: i, Item: &item}) {
				return
			}

			ev := Event[T, R]{Type: EventProgress, Index: i}
			r, err := retry(ctx, "stream", opts, i, item, fn)
			if err != nil {
				failed++
				opts.Logger.Error("Stream item failed", zap.Int("index", i), zap.Error(err))
				ev.Error = errorMessage(err)
			} else {
				ev.Result = &r
			}
			if !emit(ev) {
				return
			}
		}

		emit(Event[T, R]{Type: EventComplete, Processed: len(items), Errors: failed})
	}()

	return events
}

// errorMessage reports the item's own failure rather than the retry wrapper.
func errorMessage(err error) string {
	var msg string
	if ie, ok := err.(*ItemError); ok && ie.Err != nil {
		msg = ie.Err.Error()
	} else if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		return "Processing failed"
	}
	return msg
}
