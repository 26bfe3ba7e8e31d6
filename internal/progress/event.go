package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	// StageFrequencyStart marks the beginning of one frequency's crawl.
	StageFrequencyStart Stage = "FREQUENCY_START"
	// StageUnitDone marks one year directory finished, successfully or not.
	StageUnitDone Stage = "UNIT_DONE"
	// StageFrequencyDone marks a frequency's catalog crawled and written.
	StageFrequencyDone Stage = "FREQUENCY_DONE"
)

// Event captures a single milestone of catalog building progress.
type Event struct {
	// RunID identifies the builder invocation emitting the event. The
	// zero UUID is allowed for emitters that are not run-scoped.
	RunID uuid.UUID
	// Frequency is the catalog being built (monthly or daily).
	Frequency string
	// Stage denotes which milestone occurred.
	Stage Stage
	// Completed and Total count finished year directories within the
	// frequency; they are set on UNIT_DONE events.
	Completed int
	Total     int
	// URL is the year directory the event refers to, when unit-scoped.
	URL string
	// Records carries the directory's record count on UNIT_DONE and the
	// final catalog size on FREQUENCY_DONE.
	Records int
	// Failed marks a directory that contributed nothing because of an
	// unrecoverable parse failure.
	Failed bool
	// OutputPath and OutputBytes describe the serialized catalog file on
	// FREQUENCY_DONE.
	OutputPath  string
	OutputBytes int64
	// Elapsed is the frequency's wall time on FREQUENCY_DONE.
	Elapsed time.Duration
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.Frequency == "" {
		return errors.New("frequency is required")
	}
	switch e.Stage {
	case StageFrequencyStart, StageFrequencyDone:
	case StageUnitDone:
		if e.Total <= 0 {
			return errors.New("unit done requires a positive total")
		}
		if e.Completed <= 0 || e.Completed > e.Total {
			return fmt.Errorf("completed %d out of range 1..%d", e.Completed, e.Total)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Records < 0 {
		return errors.New("records must be >= 0")
	}
	if e.Elapsed < 0 {
		return errors.New("elapsed must be >= 0")
	}
	return nil
}
