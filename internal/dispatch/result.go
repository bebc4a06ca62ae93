package dispatch

import (
	"strings"

	"github.com/mwiater/toolhost/internal/util"
)

// maxErrorRunes bounds the error text shown to callers.
const maxErrorRunes = 512

// Content is one block of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text returns a text content block.
func Text(s string) Content {
	return Content{Type: "text", Text: s}
}

// Result is the envelope produced for every invocation. A nil Err means
// success and Content holds the handler output.
type Result struct {
	Content []Content `json:"content"`
	Err     *Error    `json:"error,omitempty"`
}

// OK wraps handler output in a successful Result.
func OK(content ...Content) Result {
	return Result{Content: content}
}

// Failure builds a failed Result.
func Failure(kind Kind, message string) Result {
	return Result{Err: &Error{Kind: kind, Message: util.TruncateRunes(message, maxErrorRunes)}}
}

// FromError classifies err and builds a failed Result from it.
func FromError(err error) Result {
	return Failure(KindOf(err), err.Error())
}

// IsError reports whether the invocation failed.
func (r Result) IsError() bool { return r.Err != nil }

// Blocks returns the content blocks handed back to a caller. A failure
// collapses into a single "Error: ..." text block.
func (r Result) Blocks() []Content {
	if r.Err != nil {
		return []Content{Text("Error: " + r.Err.Message)}
	}
	return r.Content
}

// String joins the text of every block.
func (r Result) String() string {
	blocks := r.Blocks()
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}
