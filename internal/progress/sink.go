package progress

import (
	"context"

	"github.com/google/uuid"
)

// Sink consumes progress events one at a time, in emit order. Consume is
// only ever called from the hub's dispatch goroutine; Close may flush any
// buffered state.
type Sink interface {
	Consume(evt Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// scheduler and builder stay agnostic about where progress lands.
type Emitter interface {
	Emit(evt Event)
}

// WithRun returns an Emitter that stamps every event with the run ID
// before forwarding it.
func WithRun(next Emitter, runID uuid.UUID) Emitter {
	return runEmitter{next: next, runID: runID}
}

type runEmitter struct {
	next  Emitter
	runID uuid.UUID
}

func (r runEmitter) Emit(evt Event) {
	evt.RunID = r.runID
	r.next.Emit(evt)
}
