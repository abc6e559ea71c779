package client

import (
	"time"

	"github.com/spetersoncode/quizsolver"
)

// EventType identifies the kind of event occurring during a solve.
type EventType string

const (
	// EventSolveStart fires after validation, before the first backend call.
	EventSolveStart EventType = "solve_start"

	// EventSolveComplete fires after an answer was obtained.
	EventSolveComplete EventType = "solve_complete"

	// EventSolveError fires when a solve fails for good.
	EventSolveError EventType = "solve_error"

	// EventRetry fires before each retried backend call.
	EventRetry EventType = "retry"
)

// Event represents an observable occurrence during a solve.
type Event struct {
	Type     EventType
	Provider quizsolver.Provider
	Mode     quizsolver.Mode

	// Attempt is the 1-based attempt number for EventRetry.
	Attempt int

	// Duration is the elapsed time for completed or failed solves.
	Duration time.Duration

	// Error contains the error for EventSolveError.
	Error error

	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
