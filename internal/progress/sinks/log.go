package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/climate-tools/prism-catalog-builder/internal/progress"
)

// defaultEvery is the directory-completion cadence used when the caller
// passes a non-positive interval.
const defaultEvery = 50

// LogSink emits human-readable progress lines. Directory completions are
// logged every Nth unit and on the last one, so large crawls stay readable
// without ever going silent.
type LogSink struct {
	logger *zap.Logger
	every  int
}

// NewLogSink returns a sink that writes progress through logger. every
// controls how often directory completions are reported.
func NewLogSink(logger *zap.Logger, every int) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if every < 1 {
		every = defaultEvery
	}
	return &LogSink{logger: logger, every: every}
}

// Consume logs the milestones a console reader cares about.
func (s *LogSink) Consume(evt progress.Event) error {
	switch evt.Stage {
	case progress.StageFrequencyStart:
		s.logger.Info("Building catalog",
			zap.String("frequency", evt.Frequency),
		)
	case progress.StageUnitDone:
		if evt.Completed%s.every != 0 && evt.Completed != evt.Total {
			return nil
		}
		s.logger.Info("Crawled directories",
			zap.String("frequency", evt.Frequency),
			zap.Int("done", evt.Completed),
			zap.Int("total", evt.Total),
		)
	case progress.StageFrequencyDone:
		s.logger.Info("Catalog written",
			zap.String("frequency", evt.Frequency),
			zap.String("path", evt.OutputPath),
			zap.Int("records", evt.Records),
			zap.Int64("bytes", evt.OutputBytes),
			zap.Duration("elapsed", evt.Elapsed),
		)
	}
	return nil
}

// Close implements progress.Sink. The sink holds no resources.
func (s *LogSink) Close(context.Context) error {
	return nil
}
