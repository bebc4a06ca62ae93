package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mwiater/toolhost/internal/dispatch"
)

func greetTool() dispatch.Tool {
	return dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        GreetName,
			Description: "Say hello to someone. A smoke test for the host.",
			InputSchema: dispatch.Object(map[string]dispatch.Property{
				"nom": {Type: "string", Description: "Name of the person to greet"},
			}),
		},
		Handler: func(_ context.Context, args dispatch.Arguments) ([]dispatch.Content, error) {
			name := args.StringOr("nom", "Monde")
			return []dispatch.Content{dispatch.Text(fmt.Sprintf("Bonjour %s! Message sent from toolhost.", name))}, nil
		},
	}
}

func serverInfoTool(reg *dispatch.Registry, profile, version string, started time.Time, now func() time.Time) dispatch.Tool {
	if version == "" {
		version = "dev"
	}
	return dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        ServerInfoName,
			Description: "Report host status: version, profile, uptime and the number of tools.",
			InputSchema: dispatch.Object(nil),
		},
		Handler: func(context.Context, dispatch.Arguments) ([]dispatch.Content, error) {
			lines := []string{
				"toolhost " + version,
				"- Status: active",
				"- Profile: " + profile,
				fmt.Sprintf("- Tools available: %d", reg.Len()),
				"- Started: " + humanize.RelTime(started, now(), "ago", "from now"),
			}
			return []dispatch.Content{dispatch.Text(strings.Join(lines, "\n"))}, nil
		},
	}
}
