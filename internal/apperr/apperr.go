// Package apperr defines the error kinds surfaced to API callers and how they
// map onto HTTP status codes
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotLinked
	KindForbidden
	KindUnauthorized
	KindNotFound
	KindExpired
	KindNoChannel
	KindConflict
	KindUpstream
	KindValidation
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindNotLinked:
		return "not_linked"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindNoChannel:
		return "no_channel"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream_failure"
	case KindValidation:
		return "validation_failure"
	case KindRange:
		return "range_not_satisfiable"
	default:
		return "internal"
	}
}

// Error carries a kind, a message that is safe to show to the caller and
// optionally the underlying cause which only ever ends up in logs
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

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind alone, so the sentinels below work as
// targets for any error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	NotLinked    = &Error{Kind: KindNotLinked}
	Forbidden    = &Error{Kind: KindForbidden}
	Unauthorized = &Error{Kind: KindUnauthorized}
	NotFound     = &Error{Kind: KindNotFound}
	Expired      = &Error{Kind: KindExpired}
	NoChannel    = &Error{Kind: KindNoChannel}
	Conflict     = &Error{Kind: KindConflict}
	Upstream     = &Error{Kind: KindUpstream}
	Validation   = &Error{Kind: KindValidation}
)

func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

func Wrap(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// Message returns the caller-facing message. Unknown errors never leak their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}

	return "Internal server error"
}

func Status(err error) int {
	switch KindOf(err) {
	case KindNotLinked, KindNoChannel, KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindExpired:
		return http.StatusGone
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindRange:
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusInternalServerError
	}
}
