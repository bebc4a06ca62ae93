package dispatch

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFailureTruncatesMessage(t *testing.T) {
	res := Failure(KindTransport, strings.Repeat("é", 2000))
	assert.Equal(t, maxErrorRunes+1, utf8.RuneCountInString(res.Err.Message))
	assert.True(t, strings.HasSuffix(res.Err.Message, "…"))
}

func TestBlocks(t *testing.T) {
	ok := OK(Text("a"), Text("b"))
	assert.Equal(t, []Content{Text("a"), Text("b")}, ok.Blocks())
	assert.Equal(t, "a\nb", ok.String())

	bad := FromError(errors.New("boom"))
	assert.Equal(t, []Content{Text("Error: boom")}, bad.Blocks())
	assert.Equal(t, KindTransport, bad.Err.Kind)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindDomainNotFound, KindOf(NotFound("x")))
	assert.Equal(t, KindTransport, KindOf(errors.New("x")))

	e := &Error{Kind: KindInvalidArguments, Err: errors.New("inner")}
	assert.Equal(t, "inner", e.Error())
	assert.Equal(t, KindInvalidArguments, KindOf(e))
}

func TestArguments(t *testing.T) {
	args := Arguments{"a": "  x ", "n": 3.0, "blank": " "}

	v, ok := args.String("a")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = args.String("n")
	assert.False(t, ok)

	assert.Equal(t, "def", args.StringOr("blank", "def"))
	assert.Equal(t, "def", args.StringOr("missing", "def"))
	assert.Equal(t, "x", args.StringOr("a", "def"))
}
