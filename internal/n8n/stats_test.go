package n8n

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	execs := []Execution{
		{Status: "success"},
		{Status: "success"},
		{Status: "error"},
		{Status: "crashed"},
		{Status: "running"},
		{Status: "waiting"},
		{Status: "canceled"},
	}
	s := Summarize(execs)
	assert.Equal(t, Stats{Total: 7, Succeeded: 2, Failed: 2, Running: 2}, s)
	assert.LessOrEqual(t, s.Succeeded+s.Failed+s.Running, s.Total)
}

func TestOutcome(t *testing.T) {
	tests := map[string]Bucket{
		"success":  BucketSucceeded,
		"error":    BucketFailed,
		"crashed":  BucketFailed,
		"running":  BucketRunning,
		"new":      BucketRunning,
		"waiting":  BucketRunning,
		"canceled": BucketOther,
		"":         BucketOther,
	}
	for status, want := range tests {
		assert.Equal(t, want, Outcome(status), status)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestDurationMS(t *testing.T) {
	start := "2024-05-01T10:00:00.000Z"
	stop := "2024-05-01T10:00:02.250Z"
	bad := "yesterday"

	tests := []struct {
		name string
		exec Execution
		want *int64
	}{
		{"both", Execution{StartedAt: &start, StoppedAt: &stop}, ptr(2250)},
		{"no stop", Execution{StartedAt: &start}, nil},
		{"no start", Execution{StoppedAt: &stop}, nil},
		{"unparsable", Execution{StartedAt: &bad, StoppedAt: &stop}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.exec.DurationMS())
		})
	}
}

func TestIDDecodesStringsAndNumbers(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x1","b":17,"c":null}`), &v))
	assert.Equal(t, ID("x1"), v.A)
	assert.Equal(t, ID("17"), v.B)
	assert.Equal(t, ID(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func ptr(v int64) *int64 { return &v }
