package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP layer can pick a status and callers
// can tell retryable from non-retryable outcomes.
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Unauthorized
	UpstreamAuth
	UpstreamThrottled
	UpstreamTimeout
	UpstreamUnavailable
	MalformedOutput
	Upstream
	Conflict
)

var kindNames = map[Kind]string{
	Internal:            "internal",
	Validation:          "validation",
	NotFound:            "not_found",
	Unauthorized:        "unauthorized",
	UpstreamAuth:        "upstream_auth",
	UpstreamThrottled:   "upstream_throttled",
	UpstreamTimeout:     "upstream_timeout",
	UpstreamUnavailable: "upstream_unavailable",
	MalformedOutput:     "malformed_model_output",
	Upstream:            "upstream",
	Conflict:            "conflict",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status is the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	case UpstreamThrottled:
		return http.StatusTooManyRequests
	case UpstreamTimeout:
		return http.StatusGatewayTimeout
	case UpstreamUnavailable:
		return http.StatusServiceUnavailable
	case MalformedOutput, Upstream:
		return http.StatusBadGateway
	default:
		// UpstreamAuth is an operator misconfiguration, not the caller's fault.
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
