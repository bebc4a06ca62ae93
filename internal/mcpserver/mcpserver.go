// Package mcpserver exposes a dispatcher over the Model Context Protocol
// using the official MCP Go SDK.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/logging"
)

// Server serves the tools of one dispatcher.
type Server struct {
	server     *mcp.Server
	dispatcher *dispatch.Dispatcher
}

// New creates a server named name and registers every tool of d with it.
func New(name, version string, d *dispatch.Dispatcher) (*Server, error) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	s := &Server{server: server, dispatcher: d}
	for _, desc := range d.Tools() {
		tool, err := toSDKTool(desc)
		if err != nil {
			return nil, err
		}
		server.AddTool(tool, s.handler(desc.Name))
	}
	server.AddReceivingMiddleware(s.unknownTools)
	return s, nil
}

// unknownTools routes tools/call requests naming an unregistered tool
// through the dispatcher, so callers get a ToolNotFound result instead of
// a protocol error.
func (s *Server) unknownTools(next mcp.MethodHandler) mcp.MethodHandler {
	known := make(map[string]bool)
	for _, desc := range s.dispatcher.Tools() {
		known[desc.Name] = true
	}
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		call, ok := req.(*mcp.CallToolRequest)
		if method != "tools/call" || !ok || call.Params == nil || known[call.Params.Name] {
			return next(ctx, method, req)
		}
		return s.handler(call.Params.Name)(ctx, call)
	}
}

// Serve reads requests from in and writes responses to out until ctx is
// cancelled or in is exhausted.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}
	return s.run(ctx, transport)
}

// ServeStdio serves over the process's stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.run(ctx, &mcp.StdioTransport{})
}

func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func toSDKTool(desc dispatch.Descriptor) (*mcp.Tool, error) {
	schema, err := json.Marshal(desc.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("tool %q: encode input schema: %w", desc.Name, err)
	}
	return &mcp.Tool{
		Name:        desc.Name,
		Description: desc.Description,
		InputSchema: json.RawMessage(schema),
	}, nil
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.LogRequest("IN", "mcp", name, req.Params.Arguments)

		var res dispatch.Result
		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			res = dispatch.Failure(dispatch.KindInvalidArguments, err.Error())
		} else {
			res = s.dispatcher.Handle(ctx, dispatch.Request{Tool: name, Arguments: args})
		}

		out := toSDKResult(res)
		logging.LogRequest("OUT", "mcp", name, res)
		return out, nil
	}
}

// decodeArguments accepts an absent, null or object payload.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

func toSDKResult(res dispatch.Result) *mcp.CallToolResult {
	blocks := res.Blocks()
	content := make([]mcp.Content, 0, len(blocks))
	for _, b := range blocks {
		content = append(content, &mcp.TextContent{Text: b.Text})
	}
	return &mcp.CallToolResult{Content: content, IsError: res.IsError()}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
