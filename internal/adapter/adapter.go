// Package adapter wraps a remote HTTP API behind a single-call, stateless
// client. Every failure is reported as a *Failure that knows whether the
// remote side said "not found" or something else went wrong.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/logging"
	"github.com/mwiater/toolhost/internal/util"
)

const (
	// DefaultTimeout bounds a call when neither the request nor the client sets one.
	DefaultTimeout = 30 * time.Second
	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20
)

// Config describes one remote API.
type Config struct {
	// Name labels log lines and error messages, e.g. "n8n".
	Name    string
	BaseURL string
	// Headers are sent with every request, e.g. an API key.
	Headers   map[string]string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient is optional; its own Timeout is left alone, the adapter
	// applies the per-call timeout through the request context.
	HTTPClient *http.Client
}

// RequestSpec is one call.
type RequestSpec struct {
	Method string
	// Path is appended to the base URL. Callers escape dynamic segments.
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body any
	// Timeout overrides the client timeout for this call.
	Timeout time.Duration
}

// Response is a successful (2xx) reply.
type Response struct {
	Status int
	Body   []byte
}

// Client is safe for concurrent use.
type Client struct {
	name    string
	baseURL string
	headers http.Header
	timeout time.Duration
	http    *http.Client
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", cfg.BaseURL)
	}

	headers := make(http.Header, len(cfg.Headers)+2)
	for k, v := range cfg.Headers {
		if v != "" {
			headers.Set(k, v)
		}
	}
	headers.Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		name:    util.FirstNonEmpty(cfg.Name, u.Host),
		baseURL: base,
		headers: headers,
		timeout: timeout,
		http:    httpClient,
	}, nil
}

// Name returns the label of the remote API.
func (c *Client) Name() string { return c.name }

// Call performs one request. Non-2xx responses, transport errors and
// timeouts are returned as *Failure; no retry is attempted.
func (c *Client) Call(ctx context.Context, spec RequestSpec) (*Response, error) {
	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}
	op := method + " " + spec.Path

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	var payload any
	if spec.Body != nil {
		data, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, &Failure{Remote: c.name, Message: op + ": encode request body", Err: err}
		}
		payload = data
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(spec.Path, spec.Query), body)
	if err != nil {
		return nil, &Failure{Remote: c.name, Message: op + ": build request", Err: err}
	}
	for k, vals := range c.headers {
		req.Header[k] = vals
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.LogRequest("out", c.name, op, payload)
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Failure{Remote: c.name, Message: fmt.Sprintf("%s: timed out after %s", op, timeout), Err: err}
		}
		return nil, &Failure{Remote: c.name, Message: op + ": request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Failure{Remote: c.name, Status: resp.StatusCode, Message: op + ": read response body", Err: err}
	}
	logging.LogRequest("in", c.name, fmt.Sprintf("%s -> %d", op, resp.StatusCode), data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("%s: %s returned status %d", op, c.name, resp.StatusCode)
		if detail := upstreamMessage(data); detail != "" {
			msg += " (" + detail + ")"
		}
		return nil, &Failure{Remote: c.name, Status: resp.StatusCode, Message: msg}
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// GetJSON performs a GET and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, timeout time.Duration, out any) error {
	resp, err := c.Call(ctx, RequestSpec{Method: http.MethodGet, Path: path, Query: query, Timeout: timeout})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Decode unmarshals the body into v. Parse failures are transport failures.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Failure{Status: r.Status, Message: "malformed response body", Err: err}
	}
	return nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL
	if path != "" {
		u += "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// upstreamMessage extracts a short message from a JSON error body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return util.TruncateRunes(payload.Message, 200)
	}
	if s, ok := payload.Error.(string); ok {
		return util.TruncateRunes(s, 200)
	}
	return ""
}

// Failure is a failed call: HTTP status (zero when no response arrived) and
// a diagnostic message.
type Failure struct {
	Remote  string
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// NotFound reports whether the remote API answered 404.
func (f *Failure) NotFound() bool { return f.Status == http.StatusNotFound }

// ErrorKind classifies the failure for the dispatcher.
func (f *Failure) ErrorKind() dispatch.Kind {
	if f.NotFound() {
		return dispatch.KindDomainNotFound
	}
	return dispatch.KindTransport
}

// IsNotFound reports whether err is, or wraps, a 404 Failure.
func IsNotFound(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.NotFound()
}
