package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestHubPreservesEmitOrder verifies sinks observe events in emit order.
func TestHubPreservesEmitOrder(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(zap.NewNop(), sink)

	total := 25
	for i := 1; i <= total; i++ {
		hub.Emit(Event{
			Frequency: "monthly",
			Stage:     StageUnitDone,
			Completed: i,
			Total:     total,
		})
	}
	require.NoError(t, hub.Close(context.Background()))

	events := sink.Events()
	require.Len(t, events, total)
	for i, evt := range events {
		require.Equal(t, i+1, evt.Completed)
	}
}

// TestHubEmitNonBlockingWhenBufferFull asserts Emit never blocks callers,
// even with no dispatch goroutine draining the channel.
func TestHubEmitNonBlockingWhenBufferFull(t *testing.T) {
	t.Parallel()

	hub := &Hub{
		events: make(chan Event),
		logger: zap.NewNop(),
	}
	start := time.Now()
	hub.Emit(Event{Frequency: "daily", Stage: StageFrequencyStart})
	require.Less(t, time.Since(start), 50*time.Millisecond)
	require.EqualValues(t, 1, hub.dropped.Load())
}

// TestHubFlushOnClose ensures Close drains buffered events before returning.
func TestHubFlushOnClose(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(zap.NewNop(), sink)

	hub.Emit(Event{Frequency: "monthly", Stage: StageFrequencyStart})
	hub.Emit(Event{Frequency: "monthly", Stage: StageFrequencyDone, Records: 3})

	require.NoError(t, hub.Close(context.Background()))
	require.Len(t, sink.Events(), 2)
	require.True(t, sink.Closed())
}

// TestHubDiscardsInvalidEvents ensures validation failures never reach sinks.
func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(zap.NewNop(), sink)

	hub.Emit(Event{Stage: StageFrequencyStart})                                        // missing frequency
	hub.Emit(Event{Frequency: "daily", Stage: "BOGUS"})                                // unknown stage
	hub.Emit(Event{Frequency: "daily", Stage: StageUnitDone, Completed: 5, Total: 2})  // out of range
	hub.Emit(Event{Frequency: "daily", Stage: StageUnitDone, Completed: 1, Total: 10}) // valid

	require.NoError(t, hub.Close(context.Background()))
	require.Len(t, sink.Events(), 1)
}

// TestHubIgnoresEmitAfterClose keeps shutdown free of stray dispatches.
func TestHubIgnoresEmitAfterClose(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(zap.NewNop(), sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(Event{Frequency: "monthly", Stage: StageFrequencyStart})
	require.Empty(t, sink.Events())
}

// TestWithRunStampsRunID verifies the decorator fills RunID on every event.
func TestWithRunStampsRunID(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(zap.NewNop(), sink)
	runID := uuid.MustParse("4b36f6a2-8f1f-4a0e-9a77-12f4f1f80001")

	emitter := WithRun(hub, runID)
	emitter.Emit(Event{Frequency: "daily", Stage: StageFrequencyStart})

	require.NoError(t, hub.Close(context.Background()))
	events := sink.Events()
	require.Len(t, events, 1)
	require.Equal(t, runID, events[0].RunID)
}

type stubSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func newStubSink() *stubSink {
	return &stubSink{}
}

func (s *stubSink) Consume(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *stubSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *stubSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
