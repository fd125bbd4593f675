package observability

import (
	"context"
	"testing"
	"time"

	"beauty-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordJob(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	obs := newWithProvider(provider, "test", logger.NewTestLogger(t))
	ctx := context.Background()

	obs.RecordJobProcessed(ctx, "generate-recommendations", "completed")
	obs.RecordJobProcessed(ctx, "generate-recommendations", "completed")
	obs.RecordJobDuration(ctx, "generate-recommendations", 40*time.Millisecond, "completed")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	sum, ok := byName["jobs.processed"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	hist, ok := byName["jobs.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, 40.0, hist.DataPoints[0].Sum)

	obs.Shutdown()
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordJobProcessed(context.Background(), "x", "failed")
		obs.RecordJobDuration(context.Background(), "x", time.Second, "failed")
		obs.Shutdown()
	})
}
