package bus

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	stateAwaiting int32 = iota
	stateSettled
)

// PendingCall tracks one delivery attempt of a message. It moves from
// awaiting to settled exactly once; later results are dropped.
type PendingCall struct {
	ID          string
	Message     Message
	Timeout     time.Duration
	Deadline    time.Time
	RetriesLeft int

	state atomic.Int32
	done  chan struct{}
	resp  Response
	err   error
}

func newPendingCall(msg Message, timeout time.Duration, retries int) *PendingCall {
	return &PendingCall{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Message:     msg,
		Timeout:     timeout,
		Deadline:    time.Now().Add(timeout),
		RetriesLeft: retries,
		done:        make(chan struct{}),
	}
}

// settle records the outcome if the call is still awaiting.
// It reports whether this outcome won.
func (p *PendingCall) settle(resp Response, err error) bool {
	if !p.state.CompareAndSwap(stateAwaiting, stateSettled) {
		return false
	}
	p.resp = resp
	p.err = err
	close(p.done)
	return true
}

// Settled reports whether the call has an outcome.
func (p *PendingCall) Settled() bool {
	return p.state.Load() == stateSettled
}

// Done is closed once the call settles.
func (p *PendingCall) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (p *PendingCall) Result() (Response, error) {
	<-p.done
	return p.resp, p.err
}
