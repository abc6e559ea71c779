package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/bus"
	"github.com/spetersoncode/quizsolver/client"
	"github.com/spetersoncode/quizsolver/coordinator"
	"github.com/spetersoncode/quizsolver/foreground"
	"github.com/spetersoncode/quizsolver/store"
)

// agentTarget is the bus address of the terminal agent.
const agentTarget = "cli"

// app is the wired coordinator and agent for one command invocation.
type app struct {
	store       store.Store
	coordinator *coordinator.Coordinator
	agent       *foreground.Agent
	agentBus    *bus.Bus
	transport   *bus.LocalTransport
}

// newApp wires the components described by cfg. Output goes to out.
func newApp(ctx context.Context, cfg *Config, out io.Writer) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	solver := client.New(client.Config{
		Endpoints: client.Endpoints{
			Gemini: cfg.GeminiBaseURL,
			OpenAI: cfg.OpenAIBaseURL,
		},
		Timeout: cfg.Timeout,
		Logger:  logger.With("component", "client"),
	})

	transport := bus.NewLocalTransport()
	a := &app{store: st, transport: transport}

	a.agentBus = bus.New(transport, bus.Config{
		Notifier: bus.NotifierFunc(func(target, message string) {
			fmt.Fprintln(out, message)
		}),
		Logger: logger.With("component", "agent-bus"),
	})
	a.agent = foreground.New(foreground.Config{
		Bus:      a.agentBus,
		Renderer: newTerminalRenderer(out),
		Prompt:   cfg.Prompt,
		Mode:     quizsolver.Mode(cfg.Mode),
		Logger:   logger.With("component", "agent"),
	})

	coordinatorBus := bus.New(transport, bus.Config{
		Injector: bus.InjectorFunc(func(_ context.Context, target string) error {
			if target != agentTarget {
				return fmt.Errorf("no agent can be injected into %q", target)
			}
			transport.Register(agentTarget, a.agent)
			return nil
		}),
		Logger: logger.With("component", "coordinator-bus"),
	})
	a.coordinator = coordinator.New(coordinator.Config{
		Store:  st,
		Solver: solver,
		Bus:    coordinatorBus,
		Logger: logger.With("component", "coordinator"),
	})

	transport.Register(coordinator.Target, a.coordinator)
	return a, nil
}

// openStore returns the configured store. A configured API key seeds an
// in-memory store so the keyring is left untouched.
func openStore(ctx context.Context, cfg *Config) (store.Store, error) {
	if cfg.APIKey != "" || cfg.Store == "memory" {
		mem := store.NewMemory()
		if cfg.APIKey != "" {
			if err := store.Save(ctx, mem, cfg.APIKey, quizsolver.ParseProvider(cfg.Provider)); err != nil {
				return nil, err
			}
		}
		return mem, nil
	}

	kr := store.NewKeyring(store.DefaultService)
	if !kr.Available() {
		slog.Warn("keyring unavailable, falling back to memory store")
		return store.NewMemory(), nil
	}
	return kr, nil
}
