package retry

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/spetersoncode/quizsolver"
	"github.com/stretchr/testify/assert"
)

// mockTransientError simulates a transient network error.
type mockTransientError struct {
	msg string
}

func (e *mockTransientError) Error() string   { return e.msg }
func (e *mockTransientError) Timeout() bool   { return true }
func (e *mockTransientError) Temporary() bool { return true }

// Ensure mockTransientError implements net.Error
var _ net.Error = (*mockTransientError)(nil)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       0,
	}
}

func TestDoSuccess(t *testing.T) {
	cfg := DefaultConfig()
	callCount := 0

	result, err := Do(context.Background(), cfg, func(int) (string, error) {
		callCount++
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, callCount)
}

func TestDoRetryOnTransientError(t *testing.T) {
	var attempts []int
	transientErr := &mockTransientError{msg: "i/o timeout"}

	result, err := Do(context.Background(), fastConfig(3), func(attempt int) (string, error) {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return "", transientErr
		}
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoNoRetryOnPermanentKinds(t *testing.T) {
	kinds := []quizsolver.ErrorKind{
		quizsolver.KindAuth,
		quizsolver.KindRateLimit,
		quizsolver.KindFormatMismatch,
		quizsolver.KindContextInvalid,
		quizsolver.KindUnknown,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			callCount := 0
			permanentErr := quizsolver.NewError(kind, "", nil)

			_, err := Do(context.Background(), fastConfig(3), func(int) (string, error) {
				callCount++
				return "", permanentErr
			})

			assert.Equal(t, permanentErr, err)
			assert.Equal(t, 1, callCount)
		})
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	callCount := 0
	networkErr := quizsolver.NewError(quizsolver.KindNetwork, "", nil)

	_, err := Do(context.Background(), fastConfig(3), func(int) (string, error) {
		callCount++
		return "", networkErr
	})

	assert.Equal(t, networkErr, err)
	assert.Equal(t, 3, callCount)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	cfg := Config{
		MaxAttempts:  10,
		InitialDelay: time.Second, // Long delay
		MaxDelay:     time.Second,
		Multiplier:   1.0,
		Jitter:       0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, cfg, func(int) (string, error) {
		callCount++
		return "", &mockTransientError{msg: "timeout"}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount) // Only first attempt before cancellation
}

func TestDoWithDisabledRetry(t *testing.T) {
	callCount := 0

	_, err := Do(context.Background(), Disabled(), func(int) (string, error) {
		callCount++
		return "", &mockTransientError{msg: "timeout"}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, callCount)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	callCount := 0

	_, err := Do(context.Background(), Config{}, func(int) (string, error) {
		callCount++
		return "", errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, callCount)
}
