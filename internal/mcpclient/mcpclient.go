// Package mcpclient drives a tool host from the outside: it spawns or
// connects to an MCP server and lists or calls its tools.
package mcpclient

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client is a connected MCP session.
type Client struct {
	session *mcp.ClientSession
}

// Tool is a tool as advertised by the server.
type Tool struct {
	Name        string
	Description string
	InputSchema any
}

// Start spawns command and connects to it over stdio. The SDK performs the
// initialize handshake inside Connect, which is bounded by ctx.
func Start(ctx context.Context, command string, args ...string) (*Client, error) {
	transport := &mcp.CommandTransport{
		Command: exec.Command(command, args...),
	}
	return connect(ctx, transport)
}

func connect(ctx context.Context, transport mcp.Transport) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "toolhost-probe",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: connect: %w", err)
	}
	return &Client{session: session}, nil
}

// ListTools returns the server's tools in the order it reports them.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list tools: %w", err)
	}
	tools := make([]Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, Tool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return tools, nil
}

// CallTool invokes name and returns the joined text content. isError
// reports a tool-level failure; err is reserved for protocol failures.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error) {
	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", false, fmt.Errorf("mcpclient: call tool: %w", err)
	}
	return extractText(result), result.IsError, nil
}

// Close ends the session. For spawned servers this also stops the process.
func (c *Client) Close() error {
	return c.session.Close()
}

func extractText(result *mcp.CallToolResult) string {
	var texts []string
	for _, item := range result.Content {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}
