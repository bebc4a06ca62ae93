package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string, required ...string) Tool {
	props := map[string]Property{}
	for _, r := range required {
		props[r] = Property{Type: "string"}
	}
	return Tool{
		Descriptor: Descriptor{Name: name, Description: name + " tool", InputSchema: Object(props, required...)},
		Handler: func(_ context.Context, args Arguments) ([]Content, error) {
			return []Content{Text(name)}, nil
		},
	}
}

func TestRegisterAndListInOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("b"), echoTool("a", "x"), echoTool("c")))

	descs := reg.List()
	require.Len(t, descs, 3)
	assert.Equal(t, "b", descs[0].Name)
	assert.Equal(t, "a", descs[1].Name)
	assert.Equal(t, "c", descs[2].Name)
	assert.Equal(t, []string{"x"}, descs[1].InputSchema.Required)
	assert.Equal(t, 3, reg.Len())

	descs[0].Name = "mutated"
	assert.Equal(t, "b", reg.List()[0].Name)
}

func TestRegisterRejectsInvalidTools(t *testing.T) {
	noHandler := echoTool("h")
	noHandler.Handler = nil
	badSchema := echoTool("s")
	badSchema.InputSchema.Type = "array"
	dangling := echoTool("d")
	dangling.InputSchema.Required = []string{"ghost"}

	tests := []struct {
		name string
		tool Tool
	}{
		{"empty name", echoTool("  ")},
		{"nil handler", noHandler},
		{"non-object schema", badSchema},
		{"required without property", dangling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(tt.tool))
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("a")))
	err := reg.Register(echoTool("a"))
	assert.True(t, errors.Is(err, ErrDuplicateTool))
	assert.Equal(t, 1, reg.Len())
}

func TestRegisterAfterSeal(t *testing.T) {
	reg := NewRegistry()
	reg.Seal()
	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.Register(echoTool("a")), ErrRegistrySealed)
}

func TestResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("a")))

	tool, err := reg.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, "a", tool.Name)

	_, err = reg.Resolve("zz")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestValidate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("a", "crypto")))

	assert.NoError(t, reg.validate("a", map[string]any{"crypto": "btc"}))
	assert.NoError(t, reg.validate("a", map[string]any{"crypto": "btc", "extra": 1.0}))

	err := reg.validate("a", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crypto")

	err = reg.validate("a", map[string]any{"crypto": 42.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string")
}
