package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/spetersoncode/quizsolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAPIError simulates an SDK error with a status code.
type mockAPIError struct {
	code int
	msg  string
}

func (e *mockAPIError) Error() string   { return e.msg }
func (e *mockAPIError) StatusCode() int { return e.code }

// mockNetError simulates a network error with a timeout flag.
type mockNetError struct {
	msg     string
	timeout bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

var _ net.Error = (*mockNetError)(nil)

func TestStatus(t *testing.T) {
	tests := []struct {
		code int
		kind quizsolver.ErrorKind
	}{
		{401, quizsolver.KindAuth},
		{403, quizsolver.KindAuth},
		{429, quizsolver.KindRateLimit},
		{400, quizsolver.KindUnknown},
		{404, quizsolver.KindUnknown},
		{500, quizsolver.KindUnknown},
		{502, quizsolver.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			e := Status(tt.code, "body", "")
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Msg)
		})
	}
}

func TestStatusUnknownEmbedsBody(t *testing.T) {
	e := Status(500, `{"error":"boom"}`, "")
	assert.Equal(t, `API request failed: 500 - {"error":"boom"}`, e.Msg)

	e = Status(503, "  ", "")
	assert.Equal(t, "API request failed: 503", e.Msg)
}

func TestStatusRateLimitRetryAfter(t *testing.T) {
	t.Run("seconds", func(t *testing.T) {
		e := Status(429, "", "17")
		assert.Equal(t, "17", e.RetryAfter)
		assert.Contains(t, e.Msg, "17")
		assert.Equal(t, "Rate limit exceeded. Please wait 17 seconds and try again.", e.Msg)
	})

	t.Run("http date", func(t *testing.T) {
		date := "Wed, 21 Oct 2026 07:28:00 GMT"
		e := Status(429, "", date)
		assert.Contains(t, e.Msg, date)
	})

	t.Run("absent", func(t *testing.T) {
		e := Status(429, "", "")
		assert.Empty(t, e.RetryAfter)
		assert.Equal(t, "Rate limit exceeded. Please try again in a few minutes.", e.Msg)
	})
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind quizsolver.ErrorKind
	}{
		{"context invalidated", errors.New("Extension context invalidated."), quizsolver.KindContextInvalid},
		{"message port closed", errors.New("The message port closed before a response was received."), quizsolver.KindContextInvalid},
		{"runtime last error", errors.New("Unchecked runtime.lastError: x"), quizsolver.KindContextInvalid},
		{"deadline exceeded", context.DeadlineExceeded, quizsolver.KindTimeout},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), quizsolver.KindTimeout},
		{"cancelled", context.Canceled, quizsolver.KindTimeout},
		{"net timeout", &mockNetError{msg: "i/o", timeout: true}, quizsolver.KindTimeout},
		{"timeout text", errors.New("Request timeout"), quizsolver.KindTimeout},
		{"status 401", &mockAPIError{code: 401, msg: "unauthorized"}, quizsolver.KindAuth},
		{"status 429", &mockAPIError{code: 429, msg: "slow down"}, quizsolver.KindRateLimit},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("dial failed")}, quizsolver.KindNetwork},
		{"connection refused", syscall.ECONNREFUSED, quizsolver.KindNetwork},
		{"no receiver", errors.New("Could not establish connection. Receiving end does not exist."), quizsolver.KindNetwork},
		{"fetch text", errors.New("Failed to fetch"), quizsolver.KindNetwork},
		{"anything else", errors.New("something odd"), quizsolver.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Error(tt.err)
			require.NotNil(t, e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.NotEmpty(t, e.Msg)
			assert.ErrorIs(t, e, tt.err)
		})
	}
}

func TestErrorPassesThroughClassified(t *testing.T) {
	original := quizsolver.NewError(quizsolver.KindFormatMismatch, "bad shape", nil)
	wrapped := fmt.Errorf("calling backend: %w", original)

	assert.Same(t, original, Error(wrapped))
}

func TestErrorNil(t *testing.T) {
	assert.Nil(t, Error(nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, quizsolver.KindContextInvalid, Message("Extension context invalidated").Kind)
	assert.Equal(t, quizsolver.KindUnknown, Message("").Kind)
	assert.NotEmpty(t, Message("").Msg)
}

func TestContextInvalidSignaturesAreSwappable(t *testing.T) {
	saved := ContextInvalidSignatures
	defer func() { ContextInvalidSignatures = saved }()

	ContextInvalidSignatures = []string{"page went away"}
	assert.True(t, IsContextInvalid(errors.New("the page went away")))
	assert.False(t, IsContextInvalid(errors.New("Extension context invalidated")))
}
