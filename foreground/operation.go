package foreground

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spetersoncode/quizsolver/bus"
)

// Operation is one solve, held by its caller from start to finish. The
// agent accepts a new request only once the previous Operation has ended.
type Operation struct {
	ID       string
	Question string
	Started  time.Time

	mu   sync.Mutex
	call *bus.PendingCall
}

func newOperation(question string) *Operation {
	return &Operation{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Question: question,
		Started:  time.Now(),
	}
}

// Call returns the bus step the operation is waiting on, or nil.
func (o *Operation) Call() *bus.PendingCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.call
}

func (o *Operation) track(call *bus.PendingCall) {
	o.mu.Lock()
	o.call = call
	o.mu.Unlock()
}
