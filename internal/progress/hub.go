package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const defaultBufferSize = 1024

// Hub fans Event streams out to registered sinks from a single background
// goroutine, so every sink observes events in emit order. It is safe for
// concurrent use and Emit never blocks callers.
type Hub struct {
	sinks   []Sink
	events  chan Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	logger  *zap.Logger
	dropped atomic.Int64
	closed  atomic.Bool

	closeOnce sync.Once
}

// NewHub initializes a Hub and starts the dispatch goroutine over the
// supplied sinks. The returned Hub is immediately ready to accept events.
func NewHub(logger *zap.Logger, sinks ...Sink) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		sinks:  append([]Sink(nil), sinks...),
		events: make(chan Event, defaultBufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
	go h.run()
	return h
}

// Emit enqueues an Event for dispatch. It never blocks; if the buffer is
// full the event is dropped and counted, and the count is reported when
// the hub closes.
func (h *Hub) Emit(evt Event) {
	if h == nil {
		return
	}
	if h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("Discarding invalid progress event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	default:
		h.dropped.Add(1)
	}
}

// Close drains remaining events, closes the sinks, and blocks until the
// dispatch goroutine exits. It is safe to call multiple times.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		close(h.stopCh)
	})
	select {
	case <-h.doneCh:
		if n := h.dropped.Swap(0); n > 0 {
			h.logger.Warn("Progress events dropped due to backpressure", zap.Int64("dropped", n))
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("progress hub close wait: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.doneCh)
	for {
		select {
		case evt := <-h.events:
			h.dispatch(evt)
		case <-h.stopCh:
			h.drain()
			return
		}
	}
}

// drain consumes whatever is still buffered after stop, then closes sinks.
func (h *Hub) drain() {
	for {
		select {
		case evt := <-h.events:
			h.dispatch(evt)
		default:
			h.closeSinks()
			return
		}
	}
}

func (h *Hub) dispatch(evt Event) {
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Consume(evt); err != nil {
			h.logger.Warn("Progress sink consume failed", zap.Error(err))
		}
	}
}

func (h *Hub) closeSinks() {
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(context.Background()); err != nil {
			h.logger.Warn("Progress sink close failed", zap.Error(err))
		}
	}
}
