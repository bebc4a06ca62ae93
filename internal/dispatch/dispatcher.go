// Package dispatch holds the transport-independent core of a tool host: the
// tool registry, argument validation, and the dispatcher that turns every
// call into a uniform Result.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/toolhost/internal/logging"
)

// Request is one tool invocation.
type Request struct {
	// ID correlates log lines and telemetry for a request. Handle assigns one when empty.
	ID        string
	Tool      string
	Arguments map[string]any
}

// Invocation summarizes a finished request for observers.
type Invocation struct {
	RequestID string
	Tool      string
	Kind      Kind // empty on success
	Started   time.Time
	Duration  time.Duration
}

// Success reports whether the invocation produced a successful Result.
func (i Invocation) Success() bool { return i.Kind == "" }

// Observer receives one Invocation per handled request.
type Observer interface {
	ObserveInvoke(ctx context.Context, inv Invocation)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver reports every invocation to o.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// Dispatcher validates requests against the registry and runs handlers.
type Dispatcher struct {
	registry *Registry
	observer Observer
	now      func() time.Time
}

// New seals reg and returns a dispatcher over it.
func New(reg *Registry, opts ...Option) *Dispatcher {
	reg.Seal()
	d := &Dispatcher{registry: reg, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tools returns the registered descriptors in registration order.
func (d *Dispatcher) Tools() []Descriptor {
	return d.registry.List()
}

// Handle runs one request to completion. It never returns a Go error: every
// failure is folded into the Result.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Result {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	started := d.now()
	res := d.handle(ctx, req)
	elapsed := d.now().Sub(started)

	inv := Invocation{RequestID: req.ID, Tool: req.Tool, Started: started, Duration: elapsed}
	if res.Err != nil {
		inv.Kind = res.Err.Kind
		logging.LogEvent("call id=%s tool=%s outcome=%s duration=%s message=%q", req.ID, req.Tool, res.Err.Kind, elapsed, res.Err.Message)
	} else {
		logging.LogEvent("call id=%s tool=%s outcome=ok duration=%s", req.ID, req.Tool, elapsed)
	}
	if d.observer != nil {
		d.observer.ObserveInvoke(ctx, inv)
	}
	return res
}

func (d *Dispatcher) handle(ctx context.Context, req Request) Result {
	tool, err := d.registry.Resolve(req.Tool)
	if err != nil {
		return Failure(KindToolNotFound, "unknown tool: "+req.Tool)
	}

	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := d.registry.validate(tool.Name, args); err != nil {
		return Failure(KindInvalidArguments, err.Error())
	}

	content, err := tool.Handler(ctx, Arguments(args))
	if err != nil {
		return FromError(err)
	}
	if len(content) == 0 {
		content = []Content{Text("")}
	}
	return OK(content...)
}
