// Package telemetry records tool invocations with OpenTelemetry and owns
// the process-wide tracer and meter providers.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mwiater/toolhost/internal/dispatch"
)

const (
	// InvocationsMetric counts handled calls.
	InvocationsMetric = "toolhost.tool.invocations"
	// LatencyMetric records call latency in seconds.
	LatencyMetric = "toolhost.tool.latency"
	// InvokeSpan names the span emitted per call.
	InvokeSpan = "tool.invoke"
)

// ToolObserver records dispatcher outcomes as metrics and spans.
type ToolObserver struct {
	tracer      trace.Tracer
	transport   string
	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewToolObserver creates an observer bound to meter and tracer. transport
// labels every record with the shell that received the call.
func NewToolObserver(meter metric.Meter, tracer trace.Tracer, transport string) (*ToolObserver, error) {
	invocations, err := meter.Int64Counter(
		InvocationsMetric,
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		LatencyMetric,
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &ToolObserver{
		tracer:      tracer,
		transport:   transport,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// ObserveInvoke records one invocation.
func (o *ToolObserver) ObserveInvoke(ctx context.Context, inv dispatch.Invocation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", inv.Tool),
		attribute.String("transport", o.transport),
		attribute.Bool("success", inv.Success()),
	}
	if !inv.Success() {
		attrs = append(attrs, attribute.String("error_kind", string(inv.Kind)))
	}

	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, inv.Duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, InvokeSpan,
		trace.WithTimestamp(inv.Started),
		trace.WithAttributes(append(attrs, attribute.String("request_id", inv.RequestID))...),
	)
	if inv.Success() {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, string(inv.Kind))
	}
	span.End(trace.WithTimestamp(inv.Started.Add(inv.Duration)))
}

var _ dispatch.Observer = (*ToolObserver)(nil)
