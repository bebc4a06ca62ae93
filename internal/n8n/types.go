package n8n

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID is an n8n identifier. Older n8n versions emit numeric ids, newer ones
// strings; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("n8n id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Workflow is the subset of an n8n workflow the tools report. Tags and
// timestamps are kept exactly as the API returned them.
type Workflow struct {
	ID        ID                `json:"id"`
	Name      string            `json:"name"`
	Active    bool              `json:"active"`
	Tags      []json.RawMessage `json:"tags"`
	Nodes     []json.RawMessage `json:"nodes,omitempty"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

// TagList returns the tags, never nil.
func (w Workflow) TagList() []json.RawMessage {
	if w.Tags == nil {
		return []json.RawMessage{}
	}
	return w.Tags
}

// Execution is one run of a workflow.
type Execution struct {
	ID         ID      `json:"id"`
	WorkflowID ID      `json:"workflowId"`
	Status     string  `json:"status"`
	Mode       string  `json:"mode"`
	Finished   bool    `json:"finished"`
	StartedAt  *string `json:"startedAt"`
	StoppedAt  *string `json:"stoppedAt"`
}

// DurationMS returns stoppedAt - startedAt in milliseconds, or nil when
// either timestamp is missing or unparsable.
func (e Execution) DurationMS() *int64 {
	start, ok := parseTimestamp(e.StartedAt)
	if !ok {
		return nil
	}
	stop, ok := parseTimestamp(e.StoppedAt)
	if !ok {
		return nil
	}
	ms := stop.Sub(start).Milliseconds()
	return &ms
}

func parseTimestamp(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Accepted is the reply to an execution trigger. ExecutionID is empty when
// the engine did not report one.
type Accepted struct {
	ExecutionID ID `json:"executionId"`
}

// envelope is the n8n public API response shape.
type envelope[T any] struct {
	Data T `json:"data"`
}
