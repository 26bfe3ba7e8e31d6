package catalog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/climate-tools/prism-catalog-builder/internal/metrics"
	"github.com/climate-tools/prism-catalog-builder/internal/progress"
)

// defaultWorkers bounds the pool when the caller passes a non-positive
// worker count.
const defaultWorkers = 8

// Lister provides the two listing reads the crawl needs: the files inside a
// year directory and the year sub-directories of a variable listing.
type Lister interface {
	Files(ctx context.Context, dirURL string) (map[string]*int64, error)
	Years(ctx context.Context, listingURL string) ([]string, error)
}

// Scheduler fans year directories out to a bounded worker pool and collects
// the records the workers discover.
type Scheduler struct {
	lister  Lister
	workers int
	emitter progress.Emitter
	logger  *zap.Logger
}

// unitResult carries one finished unit back to the collecting loop.
type unitResult struct {
	unit    WorkUnit
	records []Record
	err     error
}

// NewScheduler builds a Scheduler around lister. A nil emitter disables
// progress reporting.
func NewScheduler(lister Lister, workers int, emitter progress.Emitter, logger *zap.Logger) *Scheduler {
	if workers < 1 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Scheduler{
		lister:  lister,
		workers: workers,
		emitter: emitter,
		logger:  logger,
	}
}

// Crawl walks every variable's year directories for one frequency and
// returns the records found, concatenated in completion order. Failures are
// contained per unit: a directory that cannot be fetched or parsed is
// logged and dropped while the rest of the pool keeps going.
func (s *Scheduler) Crawl(ctx context.Context, baseURL, frequency string, variables []string) []Record {
	units := s.discoverUnits(ctx, baseURL, frequency, variables)
	if len(units) == 0 {
		return nil
	}
	return s.runUnits(ctx, frequency, units)
}

// discoverUnits enumerates the year directories for every variable. A
// variable with no discoverable years is skipped with a warning, matching
// archives that carry a variable at only one frequency.
func (s *Scheduler) discoverUnits(ctx context.Context, baseURL, frequency string, variables []string) []WorkUnit {
	var units []WorkUnit
	for _, variable := range variables {
		freqURL := fmt.Sprintf("%s/%s/%s/", baseURL, variable, frequency)
		years, err := s.lister.Years(ctx, freqURL)
		if err != nil {
			s.logger.Error("Year listing unreadable",
				zap.String("url", freqURL),
				zap.Error(err),
			)
			continue
		}
		if len(years) == 0 {
			s.logger.Warn("No years found, skipping variable",
				zap.String("variable", variable),
				zap.String("url", freqURL),
			)
			continue
		}
		s.logger.Info("Years discovered",
			zap.String("variable", variable),
			zap.String("frequency", frequency),
			zap.Int("years", len(years)),
		)
		for _, year := range years {
			units = append(units, WorkUnit{
				Variable:  variable,
				Frequency: frequency,
				Year:      year,
				DirURL:    freqURL + year + "/",
			})
		}
	}
	return units
}

// runUnits drains units through the worker pool and aggregates results in
// completion order. The collecting loop is the only writer of the record
// slice and the completion counter, so neither needs a lock.
func (s *Scheduler) runUnits(ctx context.Context, frequency string, units []WorkUnit) []Record {
	unitCh := make(chan WorkUnit)
	resultCh := make(chan unitResult)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.IncActiveWorkers()
			defer metrics.DecActiveWorkers()
			for unit := range unitCh {
				records, err := s.crawlUnit(ctx, unit)
				resultCh <- unitResult{unit: unit, records: records, err: err}
			}
		}()
	}

	go func() {
		defer close(unitCh)
		for _, unit := range units {
			if ctx.Err() != nil {
				return
			}
			select {
			case unitCh <- unit:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var records []Record
	completed := 0
	for result := range resultCh {
		completed++
		if result.err != nil {
			s.logger.Error("Directory crawl failed",
				zap.String("url", result.unit.DirURL),
				zap.Error(result.err),
			)
		} else {
			records = append(records, result.records...)
		}
		s.emit(progress.Event{
			Frequency: frequency,
			Stage:     progress.StageUnitDone,
			Completed: completed,
			Total:     len(units),
			URL:       result.unit.DirURL,
			Records:   len(result.records),
			Failed:    result.err != nil,
		})
	}
	return records
}

// crawlUnit lists one year directory and converts its entries to records.
// A panic inside the lister is converted to an error so a single bad page
// can never take the pool down.
func (s *Scheduler) crawlUnit(ctx context.Context, unit WorkUnit) (records []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("crawl %s: panic: %v", unit.DirURL, r)
		}
	}()

	files, err := s.lister.Files(ctx, unit.DirURL)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", unit.DirURL, err)
	}

	records = make([]Record, 0, len(files))
	for name, size := range files {
		records = append(records, Record{
			Filename:  name,
			URL:       resolveURL(unit.DirURL, name),
			SizeBytes: size,
		})
	}
	return records, nil
}

func (s *Scheduler) emit(evt progress.Event) {
	if s.emitter != nil {
		s.emitter.Emit(evt)
	}
}
