package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spetersoncode/quizsolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tab = "tab-1"

func testConfig() Config {
	return Config{Timeout: 200 * time.Millisecond, SettleDelay: time.Millisecond}
}

func echo(result string) Handler {
	return HandlerFunc(func(ctx context.Context, msg Message) Response {
		return OK(map[string]string{"echo": result})
	})
}

func mustMessage(t *testing.T, action Action) Message {
	t.Helper()
	msg, err := NewMessage(action, nil)
	require.NoError(t, err)
	return msg
}

func TestSendSuccess(t *testing.T) {
	transport := NewLocalTransport()
	transport.Register(tab, echo("hi"))
	b := New(transport, testConfig())

	resp, err := b.Send(context.Background(), tab, mustMessage(t, ActionGetProvider))
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "hi", out["echo"])
}

func TestSendNoReceiver(t *testing.T) {
	b := New(NewLocalTransport(), testConfig())

	_, err := b.Send(context.Background(), tab, mustMessage(t, ActionSolve))
	require.Error(t, err)
	assert.Equal(t, quizsolver.KindNetwork, quizsolver.KindOf(err))
	assert.ErrorIs(t, err, ErrNoReceiver)
}

func TestSendFailureResponse(t *testing.T) {
	transport := NewLocalTransport()
	transport.Register(tab, HandlerFunc(func(ctx context.Context, msg Message) Response {
		return Fail(quizsolver.NewError(quizsolver.KindAuth, quizsolver.MsgMissingKey, nil))
	}))
	b := New(transport, testConfig())

	resp, err := b.Send(context.Background(), tab, mustMessage(t, ActionSolve))
	require.Error(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, quizsolver.KindAuth, quizsolver.KindOf(err))
	assert.Equal(t, quizsolver.MsgMissingKey, quizsolver.UserMessage(err))
}

func TestSendLateResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	delivered := make(chan struct{})

	transport := NewLocalTransport()
	transport.Register(tab, HandlerFunc(func(ctx context.Context, msg Message) Response {
		<-release
		defer close(delivered)
		return OK("too late")
	}))
	b := New(transport, Config{Timeout: 30 * time.Millisecond, SettleDelay: time.Millisecond})

	call := b.Start(mustMessage(t, ActionSolve))
	resp, err := b.Await(context.Background(), tab, call)
	require.Error(t, err)
	assert.Equal(t, quizsolver.KindTimeout, quizsolver.KindOf(err))
	assert.False(t, resp.Success)
	assert.True(t, call.Settled())

	close(release)
	<-delivered
	// Give the delivery goroutine time to try settling.
	time.Sleep(20 * time.Millisecond)

	resp, err = call.Result()
	assert.False(t, resp.Success)
	assert.Equal(t, quizsolver.KindTimeout, quizsolver.KindOf(err))
}

func TestPendingCallSettlesOnce(t *testing.T) {
	call := newPendingCall(Message{Action: ActionSolve}, time.Second, 0)

	assert.True(t, call.settle(OK("first"), nil))
	assert.False(t, call.settle(Response{}, errors.New("second")))

	resp, err := call.Result()
	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, call.ID)
}

func TestSendContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	transport := NewLocalTransport()
	transport.Register(tab, HandlerFunc(func(ctx context.Context, msg Message) Response {
		<-release
		return OK(nil)
	}))
	b := New(transport, Config{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Send(ctx, tab, mustMessage(t, ActionSolve))
	require.Error(t, err)
	assert.Equal(t, quizsolver.KindTimeout, quizsolver.KindOf(err))
}

func TestContextInvalidIsSticky(t *testing.T) {
	var mu sync.Mutex
	var notices []string

	transport := NewLocalTransport()
	transport.Register(tab, echo("alive"))
	transport.Invalidate(tab)

	cfg := testConfig()
	cfg.Notifier = NotifierFunc(func(target, message string) {
		mu.Lock()
		defer mu.Unlock()
		notices = append(notices, target+": "+message)
	})
	b := New(transport, cfg)

	_, err := b.Send(context.Background(), tab, mustMessage(t, ActionSolve))
	require.Error(t, err)
	assert.Equal(t, quizsolver.KindContextInvalid, quizsolver.KindOf(err))
	assert.Equal(t, quizsolver.MsgContextInvalid, quizsolver.UserMessage(err))
	assert.True(t, b.Invalidated(tab))

	// Even with a live handler the bus refuses until reloaded.
	transport.Register(tab, echo("alive"))
	_, err = b.Send(context.Background(), tab, mustMessage(t, ActionSolve))
	assert.Equal(t, quizsolver.KindContextInvalid, quizsolver.KindOf(err))

	b.Reload(tab)
	_, err = b.Send(context.Background(), tab, mustMessage(t, ActionSolve))
	assert.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{tab + ": " + quizsolver.MsgContextInvalid}, notices)
}

func TestSendWithRecoveryInjectsMissingAgent(t *testing.T) {
	transport := NewLocalTransport()
	var injections atomic.Int32

	cfg := testConfig()
	cfg.Injector = InjectorFunc(func(ctx context.Context, target string) error {
		injections.Add(1)
		transport.Register(target, echo("injected"))
		return nil
	})
	b := New(transport, cfg)

	resp, err := b.SendWithRecovery(context.Background(), tab, mustMessage(t, ActionSolveFromSelection))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int32(1), injections.Load())
}

func TestSendWithRecoveryExhaustsRetries(t *testing.T) {
	transport := NewLocalTransport()
	var attempts, injections atomic.Int32
	transport.Register(tab, HandlerFunc(func(ctx context.Context, msg Message) Response {
		attempts.Add(1)
		return Response{Success: false, Error: "agent not ready"}
	}))

	cfg := testConfig()
	cfg.Injector = InjectorFunc(func(ctx context.Context, target string) error {
		injections.Add(1)
		return nil
	})
	b := New(transport, cfg)

	_, err := b.SendWithRecovery(context.Background(), tab, mustMessage(t, ActionSolveFromSelection))
	require.Error(t, err)
	assert.Equal(t, "agent not ready", quizsolver.UserMessage(err))
	assert.Equal(t, int32(DefaultMaxRetries+1), attempts.Load())
	assert.Equal(t, int32(DefaultMaxRetries), injections.Load())
}

func TestSendWithRecoveryDoesNotRetryTimeout(t *testing.T) {
	transport := NewLocalTransport()
	var attempts, injections atomic.Int32
	transport.Register(tab, HandlerFunc(func(ctx context.Context, msg Message) Response {
		attempts.Add(1)
		time.Sleep(100 * time.Millisecond)
		return OK(nil)
	}))

	b := New(transport, Config{
		Timeout:     20 * time.Millisecond,
		SettleDelay: time.Millisecond,
		Injector: InjectorFunc(func(ctx context.Context, target string) error {
			injections.Add(1)
			return nil
		}),
	})

	_, err := b.SendWithRecovery(context.Background(), tab, mustMessage(t, ActionSolveFromSelection))
	require.Error(t, err)
	assert.Equal(t, quizsolver.KindTimeout, quizsolver.KindOf(err))
	assert.Equal(t, int32(1), attempts.Load())
	assert.Zero(t, injections.Load())
}

func TestSendWithRecoveryInjectionFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Injector = InjectorFunc(func(ctx context.Context, target string) error {
		return errors.New("cannot access a restricted page")
	})
	b := New(NewLocalTransport(), cfg)

	_, err := b.SendWithRecovery(context.Background(), tab, mustMessage(t, ActionSolveFromSelection))
	require.Error(t, err)
	assert.NotEmpty(t, quizsolver.UserMessage(err))
}

func TestSendWithRecoveryDisabled(t *testing.T) {
	var injections atomic.Int32
	cfg := testConfig()
	cfg.MaxRetries = -1
	cfg.Injector = InjectorFunc(func(ctx context.Context, target string) error {
		injections.Add(1)
		return nil
	})
	b := New(NewLocalTransport(), cfg)

	_, err := b.SendWithRecovery(context.Background(), tab, mustMessage(t, ActionSolve))
	require.Error(t, err)
	assert.Zero(t, injections.Load())
}

func TestStartTimeoutOverridesDeadline(t *testing.T) {
	transport := NewLocalTransport()
	transport.Register(tab, HandlerFunc(func(ctx context.Context, msg Message) Response {
		time.Sleep(60 * time.Millisecond)
		return OK("slow but in time")
	}))
	b := New(transport, Config{Timeout: 20 * time.Millisecond})

	_, err := b.Send(context.Background(), tab, mustMessage(t, ActionSolve))
	assert.Equal(t, quizsolver.KindTimeout, quizsolver.KindOf(err))

	resp, err := b.Await(context.Background(), tab, b.StartTimeout(mustMessage(t, ActionSolve), time.Second))
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestTimeoutReportsPerCallBudget(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	transport := NewLocalTransport()
	transport.Register(tab, HandlerFunc(func(ctx context.Context, msg Message) Response {
		<-release
		return OK(nil)
	}))
	b := New(transport, Config{Timeout: 5 * time.Second})

	_, err := b.Await(context.Background(), tab, b.StartTimeout(mustMessage(t, ActionSolve), 30*time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, quizsolver.KindTimeout, quizsolver.KindOf(err))
	assert.Contains(t, err.Error(), "no response within 30ms")
	assert.NotContains(t, err.Error(), "5s")
}
