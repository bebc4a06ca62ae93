package framed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/toolhost/internal/dispatch"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func newServer(t *testing.T) *Server {
	t.Helper()
	reg := dispatch.NewRegistry()
	require.NoError(t, reg.Register(dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        "echo",
			Description: "Echo a message",
			InputSchema: dispatch.Object(map[string]dispatch.Property{"msg": {Type: "string"}}, "msg"),
		},
		Handler: func(_ context.Context, args dispatch.Arguments) ([]dispatch.Content, error) {
			msg, _ := args.String("msg")
			return []dispatch.Content{dispatch.Text(msg)}, nil
		},
	}))
	return New("toolhost", "test", dispatch.New(reg))
}

type rawResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// run feeds input to a fresh server and returns every response frame.
func run(t *testing.T, input string) ([]rawResponse, error) {
	t.Helper()
	var out bytes.Buffer
	err := newServer(t).Serve(context.Background(), strings.NewReader(input), &out)

	var responses []rawResponse
	r := bufio.NewReader(&out)
	for {
		body, ferr := readFrame(r)
		if ferr == io.EOF {
			break
		}
		require.NoError(t, ferr)
		var resp rawResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		responses = append(responses, resp)
	}
	return responses, err
}

func TestInitializeAndPing(t *testing.T) {
	responses, err := run(t,
		frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`)+
			frame(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)+
			frame(`{"jsonrpc":"2.0","id":"p","method":"ping"}`))
	require.NoError(t, err)
	require.Len(t, responses, 2)

	assert.Equal(t, "1", string(responses[0].ID))
	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &init))
	assert.Equal(t, "2024-11-05", init.ProtocolVersion)
	assert.Equal(t, "toolhost", init.ServerInfo.Name)

	assert.Equal(t, `"p"`, string(responses[1].ID))
	assert.Nil(t, responses[1].Error)
}

func TestToolsListAndCall(t *testing.T) {
	responses, err := run(t,
		frame(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)+
			frame(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"msg":"hi"}}}`)+
			frame(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo"}}`)+
			frame(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"missing"}}`))
	require.NoError(t, err)
	require.Len(t, responses, 4)

	var list struct {
		Tools []dispatch.Descriptor `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &list))
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "echo", list.Tools[0].Name)
	assert.Equal(t, []string{"msg"}, list.Tools[0].InputSchema.Required)

	var ok callResult
	require.NoError(t, json.Unmarshal(responses[1].Result, &ok))
	assert.False(t, ok.IsError)
	assert.Equal(t, []dispatch.Content{dispatch.Text("hi")}, ok.Content)

	var invalid callResult
	require.NoError(t, json.Unmarshal(responses[2].Result, &invalid))
	assert.True(t, invalid.IsError)
	require.Len(t, invalid.Content, 1)
	assert.True(t, strings.HasPrefix(invalid.Content[0].Text, "Error: "))

	var unknown callResult
	require.NoError(t, json.Unmarshal(responses[3].Result, &unknown))
	assert.True(t, unknown.IsError)
	assert.Equal(t, "Error: unknown tool: missing", unknown.Content[0].Text)
}

func TestProtocolErrors(t *testing.T) {
	responses, err := run(t,
		frame(`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)+
			frame(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":[1]}`)+
			frame(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{}}`)+
			frame(`not json`)+
			frame(`{"id":5,"method":"ping"}`))
	require.NoError(t, err)
	require.Len(t, responses, 5)

	codes := make([]int, 0, len(responses))
	for _, r := range responses {
		require.NotNil(t, r.Error)
		codes = append(codes, r.Error.Code)
	}
	assert.Equal(t, []int{codeMethodNotFound, codeInvalidParams, codeInvalidParams, codeParseError, codeInvalidRequest}, codes)
	assert.Equal(t, "null", string(responses[3].ID))
}

func TestBrokenFrameStopsLoop(t *testing.T) {
	responses, err := run(t, "X-Other: 1\r\n\r\n{}")
	require.Error(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, codeServerError, responses[0].Error.Code)
}

func TestReadFrameAcceptsBareLF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\ncontent-length: 2\n\n{}"))
	body, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	_, err = readFrame(r)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	for _, input := range []string{
		"Content-Length: abc\r\n\r\n",
		"Content-Length: -1\r\n\r\n",
		"Content-Length: 10\r\n\r\n{}",
		"Content-Length: 2\r\n",
	} {
		_, err := readFrame(bufio.NewReader(strings.NewReader(input)))
		assert.Error(t, err, input)
	}
}

func TestServeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := newServer(t).Serve(ctx, strings.NewReader(frame(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}
