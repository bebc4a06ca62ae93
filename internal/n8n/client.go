// Package n8n is a minimal client for the n8n public REST API.
package n8n

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mwiater/toolhost/internal/adapter"
	"github.com/mwiater/toolhost/internal/dispatch"
)

const (
	// APIKeyHeader carries the n8n API key.
	APIKeyHeader = "X-N8N-API-KEY"
	// RecentExecutions is the page size used for workflow status history.
	RecentExecutions = 5

	listTimeout       = 10 * time.Second
	getTimeout        = 10 * time.Second
	executionsTimeout = 15 * time.Second
	executeTimeout    = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	URL    string
	APIKey string
	// Timeout, when positive, replaces every per-operation timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one n8n instance.
type Client struct {
	api     *adapter.Client
	timeout time.Duration
}

// New returns a client for cfg.URL.
func New(cfg Config) (*Client, error) {
	api, err := adapter.New(adapter.Config{
		Name:       "n8n",
		BaseURL:    cfg.URL,
		Headers:    map[string]string{APIKeyHeader: cfg.APIKey},
		Timeout:    executeTimeout,
		UserAgent:  "toolhost",
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("n8n: %w", err)
	}
	return &Client{api: api, timeout: cfg.Timeout}, nil
}

func (c *Client) timeoutFor(op time.Duration) time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return op
}

// ListWorkflows returns every workflow visible to the API key.
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var env envelope[[]Workflow]
	if err := c.api.GetJSON(ctx, "/api/v1/workflows", nil, c.timeoutFor(listTimeout), &env); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	if env.Data == nil {
		return []Workflow{}, nil
	}
	return env.Data, nil
}

// GetWorkflow fetches one workflow. A 404 becomes a not-found error.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var env envelope[*Workflow]
	if err := c.api.GetJSON(ctx, workflowPath(id), nil, c.timeoutFor(getTimeout), &env); err != nil {
		return nil, notFoundOr(err, id, "get workflow")
	}
	if env.Data == nil {
		return nil, dispatch.Transport(nil, "get workflow %q: response has no data", id)
	}
	return env.Data, nil
}

// ListExecutions returns up to limit executions of a workflow, most recent first.
func (c *Client) ListExecutions(ctx context.Context, workflowID string, limit int) ([]Execution, error) {
	filter, err := json.Marshal(map[string]string{"workflowId": workflowID})
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("filter", string(filter))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var env envelope[[]Execution]
	if err := c.api.GetJSON(ctx, "/api/v1/executions", q, c.timeoutFor(executionsTimeout), &env); err != nil {
		return nil, fmt.Errorf("list executions of %q: %w", workflowID, err)
	}
	if env.Data == nil {
		return []Execution{}, nil
	}
	return env.Data, nil
}

// ExecuteWorkflow asks n8n to start a workflow and returns as soon as the
// request is accepted. It does not wait for the run to finish.
func (c *Client) ExecuteWorkflow(ctx context.Context, id string) (Accepted, error) {
	resp, err := c.api.Call(ctx, adapter.RequestSpec{
		Method:  http.MethodPost,
		Path:    workflowPath(id) + "/execute",
		Body:    map[string]any{},
		Timeout: c.timeoutFor(executeTimeout),
	})
	if err != nil {
		return Accepted{}, notFoundOr(err, id, "execute workflow")
	}
	if len(resp.Body) == 0 {
		return Accepted{}, nil
	}
	var env envelope[*Accepted]
	if err := resp.Decode(&env); err != nil {
		return Accepted{}, fmt.Errorf("execute workflow %q: %w", id, err)
	}
	if env.Data == nil {
		return Accepted{}, nil
	}
	return *env.Data, nil
}

func workflowPath(id string) string {
	return "/api/v1/workflows/" + url.PathEscape(id)
}

func notFoundOr(err error, id, op string) error {
	if adapter.IsNotFound(err) {
		return &dispatch.Error{Kind: dispatch.KindDomainNotFound, Message: fmt.Sprintf("workflow %q not found", id), Err: err}
	}
	return fmt.Errorf("%s %q: %w", op, id, err)
}
