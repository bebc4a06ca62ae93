package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu   sync.Mutex
	seen []Invocation
}

func (r *recordingObserver) ObserveInvoke(_ context.Context, inv Invocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, inv)
}

func newDispatcher(t *testing.T, obs Observer, tools ...Tool) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(tools...))
	if obs == nil {
		return New(reg)
	}
	return New(reg, WithObserver(obs))
}

func failingTool(name string, err error) Tool {
	tool := echoTool(name)
	tool.Handler = func(context.Context, Arguments) ([]Content, error) { return nil, err }
	return tool
}

func TestHandleSuccess(t *testing.T) {
	obs := &recordingObserver{}
	d := newDispatcher(t, obs, echoTool("echo"))

	res := d.Handle(context.Background(), Request{Tool: "echo"})
	require.False(t, res.IsError())
	assert.Equal(t, []Content{Text("echo")}, res.Content)
	assert.Equal(t, "echo", res.String())

	require.Len(t, obs.seen, 1)
	assert.True(t, obs.seen[0].Success())
	assert.NotEmpty(t, obs.seen[0].RequestID)
	assert.Equal(t, "echo", obs.seen[0].Tool)
}

func TestHandleKeepsRequestID(t *testing.T) {
	obs := &recordingObserver{}
	d := newDispatcher(t, obs, echoTool("echo"))
	d.Handle(context.Background(), Request{ID: "req-1", Tool: "echo"})
	assert.Equal(t, "req-1", obs.seen[0].RequestID)
}

func TestHandleUnknownTool(t *testing.T) {
	called := false
	tool := echoTool("known")
	tool.Handler = func(context.Context, Arguments) ([]Content, error) {
		called = true
		return nil, nil
	}
	obs := &recordingObserver{}
	d := newDispatcher(t, obs, tool)

	res := d.Handle(context.Background(), Request{Tool: "unknown"})
	require.True(t, res.IsError())
	assert.Equal(t, KindToolNotFound, res.Err.Kind)
	assert.Equal(t, "Error: unknown tool: unknown", res.String())
	assert.False(t, called)
	assert.Equal(t, KindToolNotFound, obs.seen[0].Kind)
}

func TestHandleInvalidArgumentsSkipsHandler(t *testing.T) {
	called := false
	tool := echoTool("needs", "id")
	tool.Handler = func(context.Context, Arguments) ([]Content, error) {
		called = true
		return nil, nil
	}
	d := newDispatcher(t, nil, tool)

	for _, args := range []map[string]any{nil, {}, {"id": true}} {
		res := d.Handle(context.Background(), Request{Tool: "needs", Arguments: args})
		require.True(t, res.IsError())
		assert.Equal(t, KindInvalidArguments, res.Err.Kind)
	}
	assert.False(t, called)
}

func TestHandleClassifiesHandlerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("workflow %q not found", "x"), KindDomainNotFound},
		{"wrapped not found", fmt.Errorf("get: %w", NotFound("gone")), KindDomainNotFound},
		{"transport", Transport(errors.New("dial"), "upstream down"), KindTransport},
		{"untyped", errors.New("connection reset"), KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, nil, failingTool("f", tt.err))
			res := d.Handle(context.Background(), Request{Tool: "f"})
			require.True(t, res.IsError())
			assert.Equal(t, tt.want, res.Err.Kind)
			assert.True(t, strings.HasPrefix(res.String(), "Error: "))
		})
	}
}

func TestHandleEmptyContentBecomesEmptyText(t *testing.T) {
	tool := echoTool("quiet")
	tool.Handler = func(context.Context, Arguments) ([]Content, error) { return nil, nil }
	d := newDispatcher(t, nil, tool)

	res := d.Handle(context.Background(), Request{Tool: "quiet"})
	require.False(t, res.IsError())
	assert.Equal(t, []Content{Text("")}, res.Content)
}

func TestNewSealsRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("a")))
	d := New(reg)
	assert.ErrorIs(t, reg.Register(echoTool("b")), ErrRegistrySealed)

	first := d.Tools()
	assert.Equal(t, first, d.Tools())
}

func TestHandleConcurrent(t *testing.T) {
	obs := &recordingObserver{}
	d := newDispatcher(t, obs, echoTool("echo"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := d.Handle(context.Background(), Request{Tool: "echo"})
			assert.False(t, res.IsError())
		}()
	}
	wg.Wait()
	assert.Len(t, obs.seen, 20)
}
