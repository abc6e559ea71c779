package quizsolver

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure surfaced past the answer pipeline.
type ErrorKind string

const (
	// KindAuth indicates the backend rejected the credential (401/403).
	KindAuth ErrorKind = "auth"

	// KindRateLimit indicates the backend throttled the request (429).
	KindRateLimit ErrorKind = "rate_limit"

	// KindTimeout indicates a deadline elapsed before a result arrived.
	KindTimeout ErrorKind = "timeout"

	// KindNetwork indicates a transport-level failure.
	KindNetwork ErrorKind = "network"

	// KindFormatMismatch indicates a payload did not have the expected shape.
	KindFormatMismatch ErrorKind = "format_mismatch"

	// KindContextInvalid indicates the foreground context was torn down.
	// It is terminal until the host page is reloaded.
	KindContextInvalid ErrorKind = "context_invalid"

	// KindUnknown is the fallback for everything else.
	KindUnknown ErrorKind = "unknown"
)

// User-facing messages.
const (
	MsgContextInvalid = "Extension was reloaded. Please refresh the page."
	MsgMissingKey     = "Please set up your API key in the extension popup first."
	MsgAuth           = "Invalid API key. Please check your setup."
	MsgTimeout        = "Request timed out. Please try again."
	MsgRateLimit      = "Rate limit exceeded. Please try again later."
	MsgNetwork        = "Network error. Please check your internet connection."
	MsgFormatMismatch = "Invalid API response format - no valid answer found."
	MsgEmptyRequest   = "Nothing to solve: select some text or an image-based question first."
	MsgNotEndpoint    = "The stored credential is not an endpoint URL."
	MsgUnknown        = "An unexpected error occurred. Please try again."
)

// ErrEmptyRequest is the cause attached to requests without text or images.
var ErrEmptyRequest = errors.New("empty request")

// Error is a classified failure. Msg is always non-empty and fit for display.
type Error struct {
	Kind       ErrorKind
	Msg        string
	Code       int    // HTTP status code, 0 if not applicable
	RetryAfter string // raw Retry-After header value, empty if not available
	Cause      error
}

// Error returns the message, followed by the cause when one is attached.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Transient reports whether a caller may retry the failed operation.
func (e *Error) Transient() bool {
	return e.Kind == KindTimeout || e.Kind == KindNetwork
}

// NewError creates a classified error. An empty msg is replaced by the
// default message for kind.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	if msg == "" {
		msg = DefaultMessage(kind)
	}
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// DefaultMessage returns the user-facing message for kind.
func DefaultMessage(kind ErrorKind) string {
	switch kind {
	case KindAuth:
		return MsgAuth
	case KindRateLimit:
		return MsgRateLimit
	case KindTimeout:
		return MsgTimeout
	case KindNetwork:
		return MsgNetwork
	case KindFormatMismatch:
		return MsgFormatMismatch
	case KindContextInvalid:
		return MsgContextInvalid
	default:
		return MsgUnknown
	}
}

// KindOf returns the kind of a classified error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// UserMessage returns a message suitable for direct display.
// It never returns an empty string for a non-nil error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return MsgUnknown
}
