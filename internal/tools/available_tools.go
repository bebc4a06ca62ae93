package tools

import (
	"context"

	"github.com/mwiater/toolhost/internal/dispatch"
)

// availableToolsTool summarizes the registry it is registered in. The list
// is read at call time so it includes tools registered after it.
func availableToolsTool(reg *dispatch.Registry) dispatch.Tool {
	return dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        AvailableToolsName,
			Description: "Use this tool when the user asks which tools are available or wants a summary of their capabilities. Do not call any other tool while answering this question.",
			InputSchema: dispatch.Object(nil),
		},
		Handler: func(context.Context, dispatch.Arguments) ([]dispatch.Content, error) {
			type entry struct {
				Name        string   `json:"name"`
				Description string   `json:"description"`
				Required    []string `json:"required,omitempty"`
			}
			descs := reg.List()
			out := make([]entry, 0, len(descs))
			for _, d := range descs {
				out = append(out, entry{Name: d.Name, Description: d.Description, Required: d.InputSchema.Required})
			}
			return jsonText(out)
		},
	}
}
