package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/internal/classify"
	"github.com/spetersoncode/quizsolver/internal/provider/custom"
	"github.com/spetersoncode/quizsolver/internal/provider/google"
	"github.com/spetersoncode/quizsolver/internal/provider/openai"
	"github.com/spetersoncode/quizsolver/internal/retry"
)

// RetryConfig holds retry configuration parameters.
type RetryConfig = retry.Config

// DefaultRetryConfig returns the default retry configuration.
//   - 3 max attempts
//   - 1 second initial delay
//   - 10 second max delay
//   - 2x exponential multiplier
//   - 10% jitter
func DefaultRetryConfig() RetryConfig {
	return retry.DefaultConfig()
}

// DisabledRetryConfig returns a configuration that disables retries (single attempt).
func DisabledRetryConfig() RetryConfig {
	return retry.Disabled()
}

// Endpoints overrides where the fixed providers are reached.
// Empty fields keep the public API hosts.
type Endpoints struct {
	Gemini string
	OpenAI string
}

// Models overrides the model used per backend. Empty fields keep the defaults.
type Models struct {
	Gemini string
	OpenAI string
	Custom string
}

// Config holds configuration for creating an answer client.
type Config struct {
	Endpoints Endpoints
	Models    Models

	// Timeout bounds each HTTP call, including each discovery probe.
	// Zero means 30 seconds.
	Timeout time.Duration

	// HTTPClient carries every backend request. Nil means http.DefaultClient.
	HTTPClient *http.Client

	// RetryConfig configures retry of Timeout and Network failures.
	// If nil, uses DefaultRetryConfig.
	RetryConfig *RetryConfig

	// Events is an optional channel for receiving solve events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// Logger receives backend and probe logs. Nil means slog.Default().
	Logger *slog.Logger
}

// caller is one backend's answer call.
type caller interface {
	Call(ctx context.Context, req quizsolver.Request, cred quizsolver.Credential) (quizsolver.AnswerResult, error)
}

// endpointCaller adapts the discovery client, which takes the endpoint
// from the credential's raw value.
type endpointCaller struct {
	c *custom.Client
}

func (e endpointCaller) Call(ctx context.Context, req quizsolver.Request, cred quizsolver.Credential) (quizsolver.AnswerResult, error) {
	return e.c.Call(ctx, req, cred.Raw)
}

// Client is the single entry point for answering a request.
// Backend clients are lazily initialized when first needed.
type Client struct {
	cfg         Config
	retryConfig retry.Config
	logger      *slog.Logger

	mu       sync.Mutex
	backends map[quizsolver.Provider]caller
}

// New creates an answer client with the given configuration.
func New(cfg Config) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:         cfg,
		retryConfig: retryConfig,
		logger:      logger,
		backends:    make(map[quizsolver.Provider]caller),
	}
}

// backend returns the client for p, creating it on first use.
func (c *Client) backend(p quizsolver.Provider) caller {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.backends[p]; ok {
		return b
	}

	var b caller
	switch p {
	case quizsolver.ProviderCustom:
		opts := []custom.ClientOption{custom.WithHTTPClient(c.cfg.HTTPClient), custom.WithLogger(c.logger)}
		if c.cfg.Timeout > 0 {
			opts = append(opts, custom.WithTimeout(c.cfg.Timeout))
		}
		if c.cfg.Models.Custom != "" {
			opts = append(opts, custom.WithModel(c.cfg.Models.Custom))
		}
		b = endpointCaller{c: custom.New(opts...)}
	case quizsolver.ProviderChatGPT:
		opts := []openai.ClientOption{openai.WithHTTPClient(c.cfg.HTTPClient), openai.WithLogger(c.logger)}
		if c.cfg.Timeout > 0 {
			opts = append(opts, openai.WithTimeout(c.cfg.Timeout))
		}
		if c.cfg.Endpoints.OpenAI != "" {
			opts = append(opts, openai.WithBaseURL(c.cfg.Endpoints.OpenAI))
		}
		if c.cfg.Models.OpenAI != "" {
			opts = append(opts, openai.WithModel(openai.ChatModel(c.cfg.Models.OpenAI)))
		}
		b = openai.New(opts...)
	default:
		opts := []google.ClientOption{google.WithHTTPClient(c.cfg.HTTPClient), google.WithLogger(c.logger)}
		if c.cfg.Timeout > 0 {
			opts = append(opts, google.WithTimeout(c.cfg.Timeout))
		}
		if c.cfg.Endpoints.Gemini != "" {
			opts = append(opts, google.WithBaseURL(c.cfg.Endpoints.Gemini))
		}
		if c.cfg.Models.Gemini != "" {
			opts = append(opts, google.WithModel(google.ChatModel(c.cfg.Models.Gemini)))
		}
		b = google.New(opts...)
	}

	c.backends[p] = b
	return b
}

// Solve answers req. A credential that looks like a URL or hostname is
// treated as a custom endpoint whatever selected says; otherwise the fixed
// provider named by selected is used. Invalid requests, missing
// credentials and plain keys with custom selected fail before any backend
// is contacted. Timeout and Network
// failures are retried according to the client's retry configuration.
// Every error returned is a *quizsolver.Error.
func (c *Client) Solve(ctx context.Context, req quizsolver.Request, cred quizsolver.Credential, selected quizsolver.Provider) (quizsolver.AnswerResult, error) {
	if err := req.Validate(); err != nil {
		return quizsolver.AnswerResult{}, err
	}
	if cred.Empty() {
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindAuth, quizsolver.MsgMissingKey, nil)
	}

	provider := quizsolver.Sniff(cred.Raw, selected)
	if provider == quizsolver.ProviderCustom && quizsolver.Sniff(cred.Raw, "") != quizsolver.ProviderCustom {
		// A plain key must never be dialed as a hostname.
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindFormatMismatch, quizsolver.MsgNotEndpoint, nil)
	}
	cred.Provider = provider
	mode := req.Mode.Normalize()

	emit(c.cfg.Events, Event{Type: EventSolveStart, Provider: provider, Mode: mode})
	start := time.Now()

	b := c.backend(provider)
	result, err := retry.Do(ctx, c.retryConfig, func(attempt int) (quizsolver.AnswerResult, error) {
		if attempt > 1 {
			emit(c.cfg.Events, Event{Type: EventRetry, Provider: provider, Mode: mode, Attempt: attempt})
		}
		return b.Call(ctx, req, cred)
	})
	if err != nil {
		classified := classify.Error(err)
		if !errors.As(err, new(*quizsolver.Error)) {
			err = classified
		}
		c.logger.Warn("solve failed",
			"provider", provider,
			"kind", classified.Kind,
			"error", err,
		)
		emit(c.cfg.Events, Event{
			Type:     EventSolveError,
			Provider: provider,
			Mode:     mode,
			Duration: time.Since(start),
			Error:    err,
		})
		return quizsolver.AnswerResult{}, err
	}

	if result.Mode == quizsolver.ModeQA {
		result.Text = quizsolver.FormatAnswer(result.Text)
	}

	emit(c.cfg.Events, Event{
		Type:     EventSolveComplete,
		Provider: provider,
		Mode:     mode,
		Duration: time.Since(start),
	})
	return result, nil
}
