package toolhost

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/toolhost/internal/framed"
	"github.com/mwiater/toolhost/internal/httpapi"
	"github.com/mwiater/toolhost/internal/logging"
	"github.com/mwiater/toolhost/internal/mcpserver"
)

const serverName = "toolhost"

var framing string

// serveCmd implements 'serve', which speaks MCP over stdin/stdout.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tools over stdio",
	Long: `Serve the registered tools over stdin/stdout. The default framing is the
newline-delimited MCP stdio transport; --framing content-length switches to
LSP-style Content-Length framed JSON-RPC.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h, err := buildHost(ctx, GetConfig(), "stdio")
		if err != nil {
			return err
		}
		defer closeHost(h)

		logging.LogEvent("serve: profile=%s framing=%s tools=%d", GetConfig().ProfileName(), framing, len(h.dispatcher.Tools()))
		switch framing {
		case "ndjson", "":
			srv, err := mcpserver.New(serverName, appVersion, h.dispatcher)
			if err != nil {
				return err
			}
			return srv.ServeStdio(ctx)
		case "content-length":
			return framed.New(serverName, appVersion, h.dispatcher).Serve(ctx, os.Stdin, os.Stdout)
		default:
			return fmt.Errorf("unknown framing %q (want ndjson or content-length)", framing)
		}
	},
}

// serveHTTPCmd implements 'serve http'.
var serveHTTPCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve tools as JSON over HTTP",
	Long:  `Serve GET /health, GET /mcp/tools, POST /mcp/call and GET /mcp/stats. Set http.token (or TOOLHOST_TOKEN) to require a bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := GetConfig()
		h, err := buildHost(ctx, cfg, "http")
		if err != nil {
			return err
		}
		defer closeHost(h)

		srv := httpapi.New(httpapi.Config{
			Addr:    cfg.HTTP.Addr,
			Token:   cfg.HTTP.Token,
			Timeout: cfg.HTTPRequestTimeout(),
		}, h.dispatcher, h.telemetry.Snapshot)
		return srv.ListenAndServe(ctx)
	},
}

func closeHost(h *host) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Close(ctx); err != nil {
		logging.LogEvent("telemetry shutdown: %v", err)
	}
}

func init() {
	serveCmd.Flags().StringVar(&framing, "framing", "ndjson", "stdio framing: ndjson or content-length")
	serveHTTPCmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	serveHTTPCmd.Flags().String("token", "", "bearer token (overrides http.token)")
	bindFlag(serveHTTPCmd, "http.addr", "addr")
	bindFlag(serveHTTPCmd, "http.token", "token")

	serveCmd.AddCommand(serveHTTPCmd)
	rootCmd.AddCommand(serveCmd)
}
