package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mwiater/toolhost/internal/dispatch"
)

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestToolObserverRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	obs, err := NewToolObserver(mp.Meter("test"), noop.NewTracerProvider().Tracer("test"), "stdio")
	require.NoError(t, err)

	ctx := context.Background()
	obs.ObserveInvoke(ctx, dispatch.Invocation{Tool: "crypto_price", Started: time.Now(), Duration: 120 * time.Millisecond})
	obs.ObserveInvoke(ctx, dispatch.Invocation{Tool: "crypto_price", Kind: dispatch.KindDomainNotFound, Duration: 30 * time.Millisecond})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	invocations := findMetric(rm, InvocationsMetric)
	require.NotNil(t, invocations)
	sum, ok := invocations.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	latency := findMetric(rm, LatencyMetric)
	require.NotNil(t, latency)
	_, ok = latency.Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestToolObserverRecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	mp := sdkmetric.NewMeterProvider()
	obs, err := NewToolObserver(mp.Meter("test"), tp.Tracer("test"), "http")
	require.NoError(t, err)

	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	obs.ObserveInvoke(context.Background(), dispatch.Invocation{
		RequestID: "r1",
		Tool:      "statut_workflow",
		Kind:      dispatch.KindTransport,
		Started:   started,
		Duration:  time.Second,
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, InvokeSpan, spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, string(dispatch.KindTransport), spans[0].Status.Description)
	assert.Equal(t, started, spans[0].StartTime)
	assert.Equal(t, started.Add(time.Second), spans[0].EndTime)
}

func TestNilObserverIsNoop(t *testing.T) {
	var obs *ToolObserver
	assert.NotPanics(t, func() {
		obs.ObserveInvoke(context.Background(), dispatch.Invocation{Tool: "x"})
	})
}

func TestSetupSnapshot(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	p, err := Setup(ctx, Config{Version: "test", Transport: "stdio"}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	p.Observer.ObserveInvoke(ctx, dispatch.Invocation{Tool: "b", Duration: 200 * time.Millisecond})
	p.Observer.ObserveInvoke(ctx, dispatch.Invocation{Tool: "b", Kind: dispatch.KindTransport, Duration: 400 * time.Millisecond})
	p.Observer.ObserveInvoke(ctx, dispatch.Invocation{Tool: "a", Duration: 100 * time.Millisecond})

	stats, err := p.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].Tool)
	assert.Equal(t, int64(1), stats[0].Calls)
	assert.Equal(t, "b", stats[1].Tool)
	assert.Equal(t, int64(2), stats[1].Calls)
	assert.Equal(t, int64(1), stats[1].Failures)
	assert.InDelta(t, 0.3, stats[1].MeanLatency, 1e-9)

	assert.Len(t, recorder.Ended(), 3)
}
