package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mwiater/toolhost/internal/logging"
)

// InstrumentationName scopes the meter and tracer.
const InstrumentationName = "github.com/mwiater/toolhost"

// Config configures Setup.
type Config struct {
	// OTLPEndpoint is an http(s) URL of an OTLP/HTTP collector. Empty keeps
	// spans in process.
	OTLPEndpoint string
	ServiceName  string
	Version      string
	Transport    string
}

// Providers owns the SDK providers created by Setup.
type Providers struct {
	Tracers  *sdktrace.TracerProvider
	Meters   *sdkmetric.MeterProvider
	Observer *ToolObserver
	reader   *sdkmetric.ManualReader
}

// Setup builds tracer and meter providers, installs them as the otel
// globals and returns an observer for the dispatcher. Metrics are kept in a
// manual reader and read back with Snapshot.
func Setup(ctx context.Context, cfg Config, extra ...sdktrace.TracerProviderOption) (*Providers, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "toolhost"
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", name),
		attribute.String("service.version", cfg.Version),
	)

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exporter))
		logging.LogEvent("telemetry: exporting traces to %s", cfg.OTLPEndpoint)
	}
	traceOpts = append(traceOpts, extra...)

	reader := sdkmetric.NewManualReader()
	p := &Providers{
		Tracers: sdktrace.NewTracerProvider(traceOpts...),
		Meters:  sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)),
		reader:  reader,
	}
	otel.SetTracerProvider(p.Tracers)
	otel.SetMeterProvider(p.Meters)

	obs, err := NewToolObserver(p.Meters.Meter(InstrumentationName), p.Tracers.Tracer(InstrumentationName), cfg.Transport)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	p.Observer = obs
	return p, nil
}

// Shutdown flushes pending spans and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return errors.Join(p.Tracers.Shutdown(ctx), p.Meters.Shutdown(ctx))
}

// ToolStats is the per-tool view of the invocation metrics.
type ToolStats struct {
	Tool        string  `json:"tool"`
	Calls       int64   `json:"calls"`
	Failures    int64   `json:"failures"`
	MeanLatency float64 `json:"meanLatencySeconds"`
}

// Snapshot reads the current metric values and folds them per tool,
// ordered by tool name.
func (p *Providers) Snapshot(ctx context.Context) ([]ToolStats, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}

	byTool := map[string]*ToolStats{}
	latencySum := map[string]float64{}
	latencyCount := map[string]uint64{}
	stats := func(set attribute.Set) *ToolStats {
		v, _ := set.Value("tool_name")
		name := v.AsString()
		s, ok := byTool[name]
		if !ok {
			s = &ToolStats{Tool: name}
			byTool[name] = s
		}
		return s
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != InvocationsMetric {
					continue
				}
				for _, dp := range data.DataPoints {
					s := stats(dp.Attributes)
					s.Calls += dp.Value
					if success, _ := dp.Attributes.Value("success"); !success.AsBool() {
						s.Failures += dp.Value
					}
				}
			case metricdata.Histogram[float64]:
				if m.Name != LatencyMetric {
					continue
				}
				for _, dp := range data.DataPoints {
					s := stats(dp.Attributes)
					latencySum[s.Tool] += dp.Sum
					latencyCount[s.Tool] += dp.Count
				}
			}
		}
	}

	out := make([]ToolStats, 0, len(byTool))
	for name, s := range byTool {
		if n := latencyCount[name]; n > 0 {
			s.MeanLatency = latencySum[name] / float64(n)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out, nil
}
