package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoReceiver is returned when a target has no registered handler.
var ErrNoReceiver = errors.New("could not establish connection: receiving end does not exist")

// ErrContextInvalidated is returned by a target whose context was torn down.
var ErrContextInvalidated = errors.New("extension context invalidated")

// Handler answers messages delivered to a target.
type Handler interface {
	Handle(ctx context.Context, msg Message) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) Response

func (f HandlerFunc) Handle(ctx context.Context, msg Message) Response {
	return f(ctx, msg)
}

// Transport delivers a message to a target and returns its response.
// Deliver may block for as long as the handler runs; the bus bounds it.
type Transport interface {
	Deliver(ctx context.Context, target string, msg Message) (Response, error)
}

// Injector (re-)installs the agent for a target.
type Injector interface {
	Inject(ctx context.Context, target string) error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(ctx context.Context, target string) error

func (f InjectorFunc) Inject(ctx context.Context, target string) error {
	return f(ctx, target)
}

// Notifier shows a message to the user of a target.
type Notifier interface {
	Notify(target, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(target, message string)

func (f NotifierFunc) Notify(target, message string) {
	f(target, message)
}

// LocalTransport delivers messages to handlers registered in-process.
type LocalTransport struct {
	mu          sync.RWMutex
	handlers    map[string]Handler
	invalidated map[string]bool
}

// NewLocalTransport creates an empty transport.
func NewLocalTransport() *LocalTransport {
	return &LocalTransport{
		handlers:    make(map[string]Handler),
		invalidated: make(map[string]bool),
	}
}

// Register installs h for target, replacing any previous handler and
// clearing an earlier invalidation.
func (t *LocalTransport) Register(target string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[target] = h
	delete(t.invalidated, target)
}

// Unregister removes the handler for target.
func (t *LocalTransport) Unregister(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, target)
}

// Invalidate tears down target's context: deliveries fail with
// ErrContextInvalidated until a handler is registered again.
func (t *LocalTransport) Invalidate(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, target)
	t.invalidated[target] = true
}

// Registered reports whether target has a handler.
func (t *LocalTransport) Registered(target string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handlers[target]
	return ok
}

func (t *LocalTransport) Deliver(ctx context.Context, target string, msg Message) (Response, error) {
	t.mu.RLock()
	h, ok := t.handlers[target]
	invalid := t.invalidated[target]
	t.mu.RUnlock()

	if invalid {
		return Response{}, ErrContextInvalidated
	}
	if !ok {
		return Response{}, fmt.Errorf("deliver %s to %s: %w", msg.Action, target, ErrNoReceiver)
	}
	return h.Handle(ctx, msg), nil
}
