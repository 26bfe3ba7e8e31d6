package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/climate-tools/prism-catalog-builder/internal/progress"
)

func TestPrometheusSinkCountsDirectories(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	require.NoError(t, sink.Consume(progress.Event{
		Frequency: "monthly",
		Stage:     progress.StageUnitDone,
		Completed: 1,
		Total:     2,
		Records:   12,
	}))
	require.NoError(t, sink.Consume(progress.Event{
		Frequency: "monthly",
		Stage:     progress.StageUnitDone,
		Completed: 2,
		Total:     2,
		Failed:    true,
	}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.directoriesDone.WithLabelValues("monthly", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.directoriesDone.WithLabelValues("monthly", "error")))
	require.Equal(t, 12.0, testutil.ToFloat64(sink.recordsTotal.WithLabelValues("monthly")))
}

func TestPrometheusSinkRecordsFrequencyOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	require.NoError(t, sink.Consume(progress.Event{
		Frequency: "daily",
		Stage:     progress.StageFrequencyDone,
		Records:   4521,
		Elapsed:   90 * time.Second,
	}))

	require.Equal(t, 4521.0, testutil.ToFloat64(sink.catalogRecords.WithLabelValues("daily")))
	require.Equal(t, 1, testutil.CollectAndCount(sink.buildSeconds))
	require.NoError(t, sink.Close(context.Background()))
}

func TestNewPrometheusSinkRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
