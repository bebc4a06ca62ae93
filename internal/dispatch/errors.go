package dispatch

import (
	"errors"
	"fmt"
)

// Kind classifies why an invocation failed.
type Kind string

const (
	// KindToolNotFound means the request named a tool the registry does not know.
	KindToolNotFound Kind = "tool_not_found"
	// KindInvalidArguments means the arguments did not satisfy the tool's input schema.
	KindInvalidArguments Kind = "invalid_arguments"
	// KindDomainNotFound means the remote service reported the resource as absent.
	KindDomainNotFound Kind = "not_found"
	// KindTransport covers network failures, timeouts, non-404 HTTP errors and malformed bodies.
	KindTransport Kind = "transport_error"
)

var (
	// ErrToolNotFound is returned by Registry.Resolve for unregistered names.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrRegistrySealed is returned when Register is called after the registry was sealed.
	ErrRegistrySealed = errors.New("registry is sealed")
)

// Error is a classified failure. Handlers return it for expected conditions
// such as "resource not found"; the dispatcher turns it into a failed Result.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind reports the classification of e.
func (e *Error) ErrorKind() Kind { return e.Kind }

// kinded is implemented by errors that know their own classification.
type kinded interface {
	ErrorKind() Kind
}

// NotFound builds a KindDomainNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindDomainNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transport builds a KindTransport error wrapping cause.
func Transport(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindTransport, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf classifies err. Errors that do not carry a kind are treated as
// transport failures: the only work a handler does is talk to a remote API.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindTransport
}
