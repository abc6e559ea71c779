package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/internal/classify"
)

// Defaults for Config fields left zero.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxRetries  = 2
	DefaultSettleDelay = 200 * time.Millisecond
)

// Config holds bus settings.
type Config struct {
	// Timeout bounds each delivery attempt. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxRetries is how many times SendWithRecovery re-injects and retries
	// after the first attempt. Negative disables recovery; zero means
	// DefaultMaxRetries.
	MaxRetries int

	// SettleDelay is the pause after an injection before retrying.
	// Zero means DefaultSettleDelay.
	SettleDelay time.Duration

	// Injector re-installs an agent during recovery. Nil skips injection
	// but still retries.
	Injector Injector

	// Notifier is told once when a target's context is found invalidated.
	Notifier Notifier

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Bus sends messages through a Transport with deadlines and recovery.
type Bus struct {
	transport   Transport
	timeout     time.Duration
	maxRetries  int
	settleDelay time.Duration
	injector    Injector
	notifier    Notifier
	logger      *slog.Logger

	mu      sync.Mutex
	invalid map[string]bool
}

// New creates a bus over t.
func New(t Transport, cfg Config) *Bus {
	b := &Bus{
		transport:   t,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		settleDelay: cfg.SettleDelay,
		injector:    cfg.Injector,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		invalid:     make(map[string]bool),
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	switch {
	case b.maxRetries == 0:
		b.maxRetries = DefaultMaxRetries
	case b.maxRetries < 0:
		b.maxRetries = 0
	}
	if b.settleDelay <= 0 {
		b.settleDelay = DefaultSettleDelay
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Start opens a PendingCall for msg. The deadline starts now.
func (b *Bus) Start(msg Message) *PendingCall {
	return newPendingCall(msg, b.timeout, b.maxRetries)
}

// StartTimeout opens a PendingCall for msg with its own deadline, for calls
// known to outlast the bus timeout such as relayed backend requests.
func (b *Bus) StartTimeout(msg Message, timeout time.Duration) *PendingCall {
	if timeout <= 0 {
		timeout = b.timeout
	}
	return newPendingCall(msg, timeout, b.maxRetries)
}

// Await delivers call's message to target and waits for the first of: the
// response, the call's deadline, or ctx. The delivery itself is not
// cancelled when the deadline wins; its result is discarded.
//
// A nil error means the target answered with success. Transport failures,
// timeouts and success:false responses all return a *quizsolver.Error; the
// response is returned alongside when there was one.
func (b *Bus) Await(ctx context.Context, target string, call *PendingCall) (Response, error) {
	if b.Invalidated(target) {
		return Response{}, quizsolver.NewError(quizsolver.KindContextInvalid, "", nil)
	}

	go func() {
		resp, err := b.transport.Deliver(ctx, target, call.Message)
		if !call.settle(resp, err) {
			b.logger.Debug("discarding late response",
				"target", target,
				"action", call.Message.Action,
				"call", call.ID,
			)
		}
	}()

	timer := time.NewTimer(time.Until(call.Deadline))
	defer timer.Stop()

	select {
	case <-call.Done():
	case <-timer.C:
		call.settle(Response{}, quizsolver.NewError(quizsolver.KindTimeout, "",
			fmt.Errorf("%s to %s: no response within %v", call.Message.Action, target, call.Timeout)))
	case <-ctx.Done():
		call.settle(Response{}, ctx.Err())
	}

	resp, err := call.Result()
	if err == nil {
		err = resp.Err()
	}
	if err == nil {
		return resp, nil
	}

	classified := classify.Error(err)
	if classified.Kind == quizsolver.KindContextInvalid {
		b.invalidate(target)
		classified = quizsolver.NewError(quizsolver.KindContextInvalid, "", err)
	}
	return resp, classified
}

// Send delivers msg to target once.
func (b *Bus) Send(ctx context.Context, target string, msg Message) (Response, error) {
	return b.Await(ctx, target, b.Start(msg))
}

// SendWithRecovery delivers msg to target, re-injecting the agent and
// retrying when the send fails or the agent answers success:false. Each
// retry gets a fresh PendingCall. Timeouts and invalidated contexts end the
// loop at once.
func (b *Bus) SendWithRecovery(ctx context.Context, target string, msg Message) (Response, error) {
	call := b.Start(msg)
	for {
		resp, err := b.Await(ctx, target, call)
		if err == nil {
			return resp, nil
		}

		switch quizsolver.KindOf(err) {
		case quizsolver.KindTimeout, quizsolver.KindContextInvalid:
			return resp, err
		}
		if ctx.Err() != nil || call.RetriesLeft <= 0 {
			return resp, err
		}

		b.logger.Info("re-injecting agent",
			"target", target,
			"action", msg.Action,
			"retries_left", call.RetriesLeft,
			"error", err,
		)

		if b.injector != nil {
			if ierr := b.injector.Inject(ctx, target); ierr != nil {
				b.logger.Warn("agent injection failed", "target", target, "error", ierr)
				return resp, classify.Error(fmt.Errorf("inject agent into %s: %w", target, ierr))
			}
		}

		if err := sleep(ctx, b.settleDelay); err != nil {
			return resp, classify.Error(err)
		}

		next := b.Start(msg)
		next.RetriesLeft = call.RetriesLeft - 1
		call = next
	}
}

// Invalidated reports whether target's context was found torn down.
func (b *Bus) Invalidated(target string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.invalid[target]
}

// Reload clears target's invalidated state after the host page reloads.
func (b *Bus) Reload(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.invalid, target)
}

func (b *Bus) invalidate(target string) {
	b.mu.Lock()
	first := !b.invalid[target]
	b.invalid[target] = true
	b.mu.Unlock()

	if !first {
		return
	}
	b.logger.Warn("target context invalidated", "target", target)
	if b.notifier != nil {
		b.notifier.Notify(target, quizsolver.MsgContextInvalid)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
