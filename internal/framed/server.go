// Package framed serves a dispatcher as JSON-RPC 2.0 over a byte stream
// with LSP-style Content-Length framing. It answers initialize, ping,
// tools/list and tools/call.
package framed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/logging"
)

// ProtocolVersion is reported when the client does not name one.
const ProtocolVersion = "2025-06-18"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// notification reports whether no response is expected.
func (r *request) notification() bool { return len(r.ID) == 0 }

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type callResult struct {
	Content []dispatch.Content `json:"content"`
	IsError bool               `json:"isError"`
}

var nullID = json.RawMessage("null")

// Server answers framed requests with one dispatcher.
type Server struct {
	name       string
	version    string
	dispatcher *dispatch.Dispatcher
}

// New returns a server identifying itself as name/version.
func New(name, version string, d *dispatch.Dispatcher) *Server {
	return &Server{name: name, version: version, dispatcher: d}
}

// Serve processes requests from in one at a time until in is exhausted or
// ctx is cancelled. A clean end of input returns nil. A broken frame is
// reported to the peer once and ends the loop with an error.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := readFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			_ = writeMessage(w, response{JSONRPC: "2.0", ID: nullID, Error: &rpcError{Code: codeServerError, Message: err.Error()}})
			return fmt.Errorf("read frame: %w", err)
		}

		var req request
		if err := json.Unmarshal(body, &req); err != nil {
			logging.LogEvent("framed: unparsable message: %v", err)
			if err := writeMessage(w, errorResponse(nullID, codeParseError, "Parse error")); err != nil {
				return err
			}
			continue
		}

		resp, ok := s.handle(ctx, &req)
		if !ok {
			continue
		}
		if err := writeMessage(w, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// handle returns the response for req, or false for notifications.
func (s *Server) handle(ctx context.Context, req *request) (response, bool) {
	if req.notification() {
		logging.LogRequest("IN", "framed", req.Method, req.Params)
		return response{}, false
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, codeInvalidRequest, "Invalid request"), true
	}

	switch req.Method {
	case "initialize":
		var p struct {
			ProtocolVersion string `json:"protocolVersion"`
		}
		_ = json.Unmarshal(req.Params, &p)
		version := p.ProtocolVersion
		if version == "" {
			version = ProtocolVersion
		}
		return result(req.ID, map[string]any{
			"protocolVersion": version,
			"serverInfo":      map[string]any{"name": s.name, "version": s.version},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		}), true

	case "ping":
		return result(req.ID, map[string]any{}), true

	case "tools/list":
		return result(req.ID, map[string]any{"tools": s.dispatcher.Tools()}), true

	case "tools/call":
		var p callParams
		if params := bytes.TrimSpace(req.Params); len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return errorResponse(req.ID, codeInvalidParams, "Invalid params"), true
			}
		}
		if p.Name == "" {
			return errorResponse(req.ID, codeInvalidParams, "Invalid params: name is required"), true
		}
		logging.LogRequest("IN", "framed", p.Name, p.Arguments)
		res := s.dispatcher.Handle(ctx, dispatch.Request{Tool: p.Name, Arguments: p.Arguments})
		logging.LogRequest("OUT", "framed", p.Name, res)
		return result(req.ID, callResult{Content: res.Blocks(), IsError: res.IsError()}), true
	}

	return errorResponse(req.ID, codeMethodNotFound, "Method not found: "+req.Method), true
}

func result(id json.RawMessage, v any) response {
	return response{JSONRPC: "2.0", ID: id, Result: v}
}

func errorResponse(id json.RawMessage, code int, msg string) response {
	return response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}
