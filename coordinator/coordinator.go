// Package coordinator is the privileged side of the message bus. It owns the
// stored settings and every network-capable call, answers the foreground
// agents' requests, and relays selections made outside the page (context
// menu, CLI) to the agent of the right target.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/bus"
	"github.com/spetersoncode/quizsolver/store"
)

// Target is the bus address the coordinator is registered under.
const Target = "coordinator"

// Solver answers requests. *client.Client implements it.
type Solver interface {
	Solve(ctx context.Context, req quizsolver.Request, cred quizsolver.Credential, selected quizsolver.Provider) (quizsolver.AnswerResult, error)
}

// CredentialResult is the getCredential reply.
type CredentialResult struct {
	APIKey   string              `json:"apiKey"`
	Provider quizsolver.Provider `json:"provider"`
}

// ProviderResult is the getProvider reply.
type ProviderResult struct {
	Provider quizsolver.Provider `json:"provider"`
}

// SelectionPayload is the solveFromSelection payload.
type SelectionPayload struct {
	Text string `json:"text"`
}

// EndpointPayload is the callCustomEndpoint payload: a request plus the
// endpoint to probe. An empty endpoint uses the stored credential.
type EndpointPayload struct {
	quizsolver.Request
	Endpoint string `json:"endpoint,omitempty"`
}

// Config holds coordinator dependencies.
type Config struct {
	Store  store.Store
	Solver Solver

	// Bus relays selections to agents. Required for SolveSelection only.
	Bus *bus.Bus

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Coordinator dispatches envelope actions.
type Coordinator struct {
	store  store.Store
	solver Solver
	bus    *bus.Bus
	logger *slog.Logger
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:  cfg.Store,
		solver: cfg.Solver,
		bus:    cfg.Bus,
		logger: logger,
	}
}

// Handle answers one message. It never panics on bad input; every failure
// becomes a success:false response with a displayable message.
func (c *Coordinator) Handle(ctx context.Context, msg bus.Message) bus.Response {
	c.logger.Debug("handling message", "action", msg.Action)

	switch msg.Action {
	case bus.ActionGetCredential:
		return c.getCredential(ctx)
	case bus.ActionGetProvider:
		return c.getProvider(ctx)
	case bus.ActionSolve:
		return c.solve(ctx, msg)
	case bus.ActionCallCustomEndpoint:
		return c.callCustomEndpoint(ctx, msg)
	default:
		return bus.Fail(quizsolver.NewError(quizsolver.KindUnknown,
			fmt.Sprintf("Unsupported action: %s", msg.Action), nil))
	}
}

func (c *Coordinator) getCredential(ctx context.Context) bus.Response {
	settings, err := store.Load(ctx, c.store)
	if err != nil {
		return bus.Fail(err)
	}
	return bus.OK(CredentialResult{APIKey: settings.Credential.Raw, Provider: settings.Credential.Provider})
}

func (c *Coordinator) getProvider(ctx context.Context) bus.Response {
	settings, err := store.Load(ctx, c.store)
	if err != nil {
		return bus.Fail(err)
	}
	return bus.OK(ProviderResult{Provider: settings.Provider})
}

func (c *Coordinator) solve(ctx context.Context, msg bus.Message) bus.Response {
	var req quizsolver.Request
	if err := msg.Decode(&req); err != nil {
		return bus.Fail(quizsolver.NewError(quizsolver.KindFormatMismatch, "", err))
	}

	settings, err := store.Load(ctx, c.store)
	if err != nil {
		return bus.Fail(err)
	}

	result, err := c.solver.Solve(ctx, req, settings.Credential, settings.Provider)
	if err != nil {
		return bus.Fail(err)
	}
	return bus.OK(result)
}

func (c *Coordinator) callCustomEndpoint(ctx context.Context, msg bus.Message) bus.Response {
	var p EndpointPayload
	if err := msg.Decode(&p); err != nil {
		return bus.Fail(quizsolver.NewError(quizsolver.KindFormatMismatch, "", err))
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		settings, err := store.Load(ctx, c.store)
		if err != nil {
			return bus.Fail(err)
		}
		endpoint = settings.Credential.Raw
	}

	cred := quizsolver.NewCredential(endpoint, quizsolver.ProviderCustom)
	if !cred.Empty() && quizsolver.Sniff(endpoint, "") != quizsolver.ProviderCustom {
		return bus.Fail(quizsolver.NewError(quizsolver.KindFormatMismatch, quizsolver.MsgNotEndpoint, nil))
	}

	result, err := c.solver.Solve(ctx, p.Request, cred, quizsolver.ProviderCustom)
	if err != nil {
		return bus.Fail(err)
	}
	return bus.OK(result)
}

// SolveSelection asks the agent at target to solve text, injecting it if
// it is missing. The agent acknowledges at once and renders the answer
// itself, so a nil error only means the request was handed over.
func (c *Coordinator) SolveSelection(ctx context.Context, target, text string) error {
	if c.bus == nil {
		return quizsolver.NewError(quizsolver.KindUnknown, "", fmt.Errorf("coordinator has no bus"))
	}
	msg, err := bus.NewMessage(bus.ActionSolveFromSelection, SelectionPayload{Text: text})
	if err != nil {
		return quizsolver.NewError(quizsolver.KindUnknown, "", err)
	}

	_, err = c.bus.SendWithRecovery(ctx, target, msg)
	if err != nil {
		c.logger.Warn("selection relay failed", "target", target, "error", err)
		return err
	}
	return nil
}

var _ bus.Handler = (*Coordinator)(nil)
