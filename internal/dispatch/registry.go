package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Handler implements a tool. It receives arguments that already passed
// schema validation.
type Handler func(ctx context.Context, args Arguments) ([]Content, error)

// Tool pairs a descriptor with the handler that implements it.
type Tool struct {
	Descriptor
	Handler Handler
}

type entry struct {
	tool   Tool
	schema *gojsonschema.Schema
}

// Registry maps tool names to tools. It is populated once at startup and
// sealed before the first request is served; after Seal it is read-only and
// safe for concurrent use without locking.
type Registry struct {
	entries map[string]*entry
	order   []string
	sealed  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds tools in order. It stops at the first invalid tool.
func (r *Registry) Register(tools ...Tool) error {
	for _, t := range tools {
		if err := r.register(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) register(t Tool) error {
	if r.sealed {
		return fmt.Errorf("register %q: %w", t.Name, ErrRegistrySealed)
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return errors.New("register: tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("register %q: handler is required", name)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateTool)
	}
	if t.InputSchema.Type != "object" {
		return fmt.Errorf("register %q: input schema type must be \"object\", got %q", name, t.InputSchema.Type)
	}
	if t.InputSchema.Properties == nil {
		t.InputSchema.Properties = map[string]Property{}
	}
	for _, req := range t.InputSchema.Required {
		if _, ok := t.InputSchema.Properties[req]; !ok {
			return fmt.Errorf("register %q: required field %q has no property", name, req)
		}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.InputSchema))
	if err != nil {
		return fmt.Errorf("register %q: compile input schema: %w", name, err)
	}

	t.Name = name
	r.entries[name] = &entry{tool: t, schema: schema}
	r.order = append(r.order, name)
	return nil
}

// Seal forbids further registration.
func (r *Registry) Seal() { r.sealed = true }

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool { return r.sealed }

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// List returns every descriptor in registration order. The returned slice
// is a copy.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].tool.Descriptor)
	}
	return out
}

// Resolve returns the tool registered under name.
func (r *Registry) Resolve(name string) (Tool, error) {
	e, ok := r.entries[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return e.tool, nil
}

// validate checks args against the schema of the named tool.
func (r *Registry) validate(name string, args map[string]any) error {
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	result, err := e.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("arguments could not be validated: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return errors.New(strings.Join(errs, "; "))
}
