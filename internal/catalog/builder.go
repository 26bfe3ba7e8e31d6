package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/climate-tools/prism-catalog-builder/internal/progress"
)

// Frequencies lists the catalogs built on every run, in build order.
var Frequencies = []string{"monthly", "daily"}

// Crawler produces the records for one frequency. Per-directory failures
// are contained inside the crawl and surface only as missing records.
type Crawler interface {
	Crawl(ctx context.Context, baseURL, frequency string, variables []string) []Record
}

// Writer persists one frequency's records and reports where they landed.
type Writer interface {
	WriteCatalog(frequency string, records []Record) (path string, size int64, err error)
}

// Builder drives one full run: a crawl and a catalog file per frequency.
type Builder struct {
	crawler   Crawler
	writer    Writer
	baseURL   string
	variables []string
	emitter   progress.Emitter
	logger    *zap.Logger
}

// NewBuilder wires a Builder. A nil emitter disables progress reporting.
func NewBuilder(crawler Crawler, writer Writer, baseURL string, variables []string, emitter progress.Emitter, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		crawler:   crawler,
		writer:    writer,
		baseURL:   baseURL,
		variables: variables,
		emitter:   emitter,
		logger:    logger,
	}
}

// Run builds the monthly catalog, then the daily one. Directory failures
// were already contained by the crawl; Run fails only when a catalog cannot
// be written or the context is canceled mid-crawl.
func (b *Builder) Run(ctx context.Context) error {
	for _, frequency := range Frequencies {
		if err := b.buildFrequency(ctx, frequency); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildFrequency(ctx context.Context, frequency string) error {
	b.emit(progress.Event{
		Frequency: frequency,
		Stage:     progress.StageFrequencyStart,
	})
	b.logger.Debug("Starting frequency crawl", zap.String("frequency", frequency))

	start := time.Now()
	records := b.crawler.Crawl(ctx, b.baseURL, frequency, b.variables)
	elapsed := time.Since(start)

	// An interrupted crawl returns whatever completed before cancellation.
	// Writing that out would look like a finished catalog, so bail instead.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl %s interrupted: %w", frequency, err)
	}

	path, size, err := b.writer.WriteCatalog(frequency, records)
	if err != nil {
		return fmt.Errorf("write %s catalog: %w", frequency, err)
	}

	b.emit(progress.Event{
		Frequency:   frequency,
		Stage:       progress.StageFrequencyDone,
		Records:     len(records),
		OutputPath:  path,
		OutputBytes: size,
		Elapsed:     elapsed,
	})
	return nil
}

func (b *Builder) emit(evt progress.Event) {
	if b.emitter != nil {
		b.emitter.Emit(evt)
	}
}
