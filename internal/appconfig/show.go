package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary with secrets masked.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	r := cfg.Redacted()
	n8nTimeout := "per operation"
	if d := cfg.N8NTimeout(); d > 0 {
		n8nTimeout = d.String()
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:             %v\n", r.Debug)
	fmt.Fprintf(out, "  Log File:          %s\n", r.LogFile)
	fmt.Fprintf(out, "  Profile:           %s\n", r.ProfileName())
	fmt.Fprintf(out, "  n8n URL:           %s\n", r.N8N.URL)
	fmt.Fprintf(out, "  n8n API Key:       %s\n", r.N8N.APIKey)
	fmt.Fprintf(out, "  n8n Timeout:       %s\n", n8nTimeout)
	fmt.Fprintf(out, "  CoinGecko URL:     %s\n", r.CoinGecko.URL)
	fmt.Fprintf(out, "  CoinGecko Timeout: %s\n", r.CoinGeckoTimeout())
	fmt.Fprintf(out, "  HTTP Addr:         %s\n", r.HTTP.Addr)
	fmt.Fprintf(out, "  HTTP Token:        %s\n", r.HTTP.Token)
	fmt.Fprintf(out, "  OTLP Endpoint:     %s\n", r.Telemetry.OTLPEndpoint)
	fmt.Fprintf(out, "  MCP Binary:        %s\n", r.MCPBinaryPath())
	fmt.Fprintf(out, "  MCP Init Timeout:  %s\n", r.MCPInitTimeoutDuration())
}
