// Package foreground is the agent embedded in a host page. It turns a
// selection into a request, asks the coordinator to answer it, and renders
// the outcome. At most one request is in flight per agent.
package foreground

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/bus"
	"github.com/spetersoncode/quizsolver/coordinator"
)

// MinSelectionLength is the shortest selection worth asking about, in
// characters after trimming.
const MinSelectionLength = 6

// DefaultRelayTimeout bounds a solve relayed to the coordinator. It covers
// a backend call with retries or a full round of endpoint probes.
const DefaultRelayTimeout = 3 * time.Minute

// ErrCallInFlight is returned when a request is made while another one is
// still open.
var ErrCallInFlight = errors.New("a request is already in progress")

// MsgSelectionTooShort is shown for selections under MinSelectionLength.
const MsgSelectionTooShort = "Please select a little more text to solve."

// Renderer shows the agent's state to the user.
type Renderer interface {
	Loading(question string)
	Answer(result quizsolver.AnswerResult)
	Error(message string)
}

// Config holds agent settings.
type Config struct {
	// Bus reaches the coordinator.
	Bus *bus.Bus

	// Renderer displays progress and outcomes. Nil discards them.
	Renderer Renderer

	// Prompt overrides the built-in prompt for selections.
	Prompt string

	// Mode is the generation mode for selections. Empty means qa.
	Mode quizsolver.Mode

	// RelayTimeout bounds a relayed solve. Zero means DefaultRelayTimeout.
	RelayTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Agent is one foreground agent instance.
type Agent struct {
	bus          *bus.Bus
	renderer     Renderer
	prompt       string
	mode         quizsolver.Mode
	relayTimeout time.Duration
	logger       *slog.Logger

	mu sync.Mutex
	op *Operation

	wg sync.WaitGroup
}

// New creates an agent.
func New(cfg Config) *Agent {
	a := &Agent{
		bus:          cfg.Bus,
		renderer:     cfg.Renderer,
		prompt:       cfg.Prompt,
		mode:         cfg.Mode.Normalize(),
		relayTimeout: cfg.RelayTimeout,
		logger:       cfg.Logger,
	}
	if a.renderer == nil {
		a.renderer = discard{}
	}
	if a.relayTimeout <= 0 {
		a.relayTimeout = DefaultRelayTimeout
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Busy reports whether a request is in flight.
func (a *Agent) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.op != nil
}

// InFlight returns the open operation, or nil.
func (a *Agent) InFlight() *Operation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.op
}

// Current returns the PendingCall of the in-flight step, or nil.
func (a *Agent) Current() *bus.PendingCall {
	if op := a.InFlight(); op != nil {
		return op.Call()
	}
	return nil
}

// Wait blocks until every selection started through Handle has finished.
func (a *Agent) Wait() {
	a.wg.Wait()
}

// Handle answers messages from the coordinator. A selection is acknowledged
// at once and solved in the background; the answer is rendered, not
// returned.
func (a *Agent) Handle(ctx context.Context, msg bus.Message) bus.Response {
	if msg.Action != bus.ActionSolveFromSelection {
		return bus.Fail(quizsolver.NewError(quizsolver.KindUnknown, "Unsupported action: "+string(msg.Action), nil))
	}

	var p coordinator.SelectionPayload
	if err := msg.Decode(&p); err != nil {
		return bus.Fail(quizsolver.NewError(quizsolver.KindFormatMismatch, "", err))
	}

	text := strings.TrimSpace(p.Text)
	if len([]rune(text)) < MinSelectionLength {
		a.renderer.Error(MsgSelectionTooShort)
		return bus.OK(nil)
	}

	op, err := a.begin(text)
	if err != nil {
		a.logger.Debug("selection ignored", "error", err)
		return bus.OK(nil)
	}

	req := quizsolver.Request{QuestionText: text, CustomPrompt: a.prompt, Mode: a.mode}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.end(op)
		_, _ = a.solve(context.WithoutCancel(ctx), op, req)
	}()
	return bus.OK(nil)
}

// Solve answers req through the coordinator and renders the outcome.
// It fails with ErrCallInFlight if another request is open.
func (a *Agent) Solve(ctx context.Context, req quizsolver.Request) (quizsolver.AnswerResult, error) {
	op, err := a.begin(req.QuestionText)
	if err != nil {
		return quizsolver.AnswerResult{}, err
	}
	defer a.end(op)
	return a.solve(ctx, op, req)
}

func (a *Agent) solve(ctx context.Context, op *Operation, req quizsolver.Request) (quizsolver.AnswerResult, error) {
	if err := req.Validate(); err != nil {
		a.renderer.Error(quizsolver.UserMessage(err))
		return quizsolver.AnswerResult{}, err
	}

	a.renderer.Loading(req.QuestionText)

	result, err := a.ask(ctx, op, req)
	if err != nil {
		a.logger.Warn("solve failed", "kind", quizsolver.KindOf(err), "error", err)
		a.renderer.Error(quizsolver.UserMessage(err))
		return quizsolver.AnswerResult{}, err
	}

	a.renderer.Answer(result)
	return result, nil
}

// ask checks for a credential, then relays the request. Custom endpoints
// go through callCustomEndpoint since only the coordinator may reach
// arbitrary hosts.
func (a *Agent) ask(ctx context.Context, op *Operation, req quizsolver.Request) (quizsolver.AnswerResult, error) {
	getCred, err := bus.NewMessage(bus.ActionGetCredential, nil)
	if err != nil {
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindUnknown, "", err)
	}
	resp, err := a.await(ctx, op, a.bus.Start(getCred))
	if err != nil {
		return quizsolver.AnswerResult{}, err
	}

	var cred coordinator.CredentialResult
	if err := resp.Decode(&cred); err != nil {
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindFormatMismatch, "", err)
	}
	if strings.TrimSpace(cred.APIKey) == "" {
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindAuth, quizsolver.MsgMissingKey, nil)
	}

	var msg bus.Message
	if cred.Provider == quizsolver.ProviderCustom {
		msg, err = bus.NewMessage(bus.ActionCallCustomEndpoint, coordinator.EndpointPayload{Request: req})
	} else {
		msg, err = bus.NewMessage(bus.ActionSolve, req)
	}
	if err != nil {
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindUnknown, "", err)
	}

	resp, err = a.await(ctx, op, a.bus.StartTimeout(msg, a.relayTimeout))
	if err != nil {
		return quizsolver.AnswerResult{}, err
	}

	var result quizsolver.AnswerResult
	if err := resp.Decode(&result); err != nil {
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindFormatMismatch, "", err)
	}
	return result, nil
}

// await tracks call as the current step and waits for it.
func (a *Agent) await(ctx context.Context, op *Operation, call *bus.PendingCall) (bus.Response, error) {
	op.track(call)
	return a.bus.Await(ctx, coordinator.Target, call)
}

// begin opens an operation for question. The operation spans every bus step
// of the solve, so no second request can slip in between them.
func (a *Agent) begin(question string) (*Operation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.op != nil {
		return nil, ErrCallInFlight
	}
	a.op = newOperation(question)
	return a.op, nil
}

// end closes op. A stale operation never clears a newer one.
func (a *Agent) end(op *Operation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.op == op {
		a.op = nil
	}
}

type discard struct{}

func (discard) Loading(string)                  {}
func (discard) Answer(quizsolver.AnswerResult) {}
func (discard) Error(string)                    {}

var _ bus.Handler = (*Agent)(nil)
