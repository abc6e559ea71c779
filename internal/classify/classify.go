// Package classify maps failures to a quizsolver.ErrorKind and a user-facing
// message. The mapping is total: every input, including ones it does not
// recognize, yields a classified error.
package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"syscall"

	"github.com/spetersoncode/quizsolver"
)

// ContextInvalidSignatures are lower-case substrings that identify a torn-down
// foreground context. Replace the slice to change the heuristic.
var ContextInvalidSignatures = []string{
	"extension context",
	"context invalidated",
	"message port closed",
	"runtime.lasterror",
}

var timeoutSignatures = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
}

var networkSignatures = []string{
	"network",
	"failed to fetch",
	"connection refused",
	"connection reset",
	"no such host",
	"broken pipe",
	"unexpected eof",
	"receiving end does not exist",
	"could not establish connection",
}

// statusCoder is implemented by errors that carry an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// Error classifies err. Errors that are already classified are returned
// unchanged; nil yields nil.
func Error(err error) *quizsolver.Error {
	if err == nil {
		return nil
	}

	var qe *quizsolver.Error
	if errors.As(err, &qe) {
		return qe
	}

	if IsContextInvalid(err) {
		return quizsolver.NewError(quizsolver.KindContextInvalid, "", err)
	}

	if isTimeout(err) {
		return quizsolver.NewError(quizsolver.KindTimeout, "", err)
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		e := Status(sc.StatusCode(), "", "")
		e.Cause = err
		return e
	}

	if isNetwork(err) {
		return quizsolver.NewError(quizsolver.KindNetwork, "", err)
	}

	return quizsolver.NewError(quizsolver.KindUnknown, "", err)
}

// Message classifies a failure that only exists as text, such as the error
// field of a response envelope.
func Message(msg string) *quizsolver.Error {
	if strings.TrimSpace(msg) == "" {
		msg = "request failed"
	}
	return Error(errors.New(msg))
}

// Status classifies a non-2xx HTTP response. detail is the response body or
// the provider's error message; retryAfter is the raw Retry-After header.
func Status(code int, detail, retryAfter string) *quizsolver.Error {
	e := &quizsolver.Error{Code: code}
	detail = strings.TrimSpace(detail)

	switch {
	case code == 401 || code == 403:
		e.Kind = quizsolver.KindAuth
		e.Msg = fmt.Sprintf("API authentication failed (%d). Please check your API key.", code)
	case code == 429:
		e.Kind = quizsolver.KindRateLimit
		e.RetryAfter = strings.TrimSpace(retryAfter)
		e.Msg = rateLimitMessage(e.RetryAfter)
	default:
		e.Kind = quizsolver.KindUnknown
		if detail != "" {
			e.Msg = fmt.Sprintf("API request failed: %d - %s", code, detail)
		} else {
			e.Msg = fmt.Sprintf("API request failed: %d", code)
		}
	}
	return e
}

func rateLimitMessage(retryAfter string) string {
	if retryAfter == "" {
		return "Rate limit exceeded. Please try again in a few minutes."
	}
	if _, err := strconv.Atoi(retryAfter); err == nil {
		return fmt.Sprintf("Rate limit exceeded. Please wait %s seconds and try again.", retryAfter)
	}
	return fmt.Sprintf("Rate limit exceeded. Please retry after %s.", retryAfter)
}

// IsContextInvalid reports whether err matches a context-invalidation signature.
func IsContextInvalid(err error) bool {
	if err == nil {
		return false
	}
	if quizsolver.IsKind(err, quizsolver.KindContextInvalid) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()), ContextInvalidSignatures)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return containsAny(strings.ToLower(err.Error()), timeoutSignatures)
}

func isNetwork(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.EPIPE:
			return true
		}
	}

	return containsAny(strings.ToLower(err.Error()), networkSignatures)
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
