package progress

import (
	"context"
	"fmt"
)

type exampleCountingSink struct {
	records int
}

func (s *exampleCountingSink) Consume(evt Event) error {
	if evt.Stage == StageUnitDone {
		s.records += evt.Records
	}
	return nil
}

func (s *exampleCountingSink) Close(context.Context) error {
	return nil
}

// ExampleHub_Emit demonstrates emitting events and flushing via Close.
func ExampleHub_Emit() {
	sink := &exampleCountingSink{}
	hub := NewHub(nil, sink)

	hub.Emit(Event{Frequency: "monthly", Stage: StageFrequencyStart})
	hub.Emit(Event{Frequency: "monthly", Stage: StageUnitDone, Completed: 1, Total: 2, Records: 12})
	hub.Emit(Event{Frequency: "monthly", Stage: StageUnitDone, Completed: 2, Total: 2, Records: 30})
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("records discovered: %d\n", sink.records)
	// Output:
	// records discovered: 42
}
