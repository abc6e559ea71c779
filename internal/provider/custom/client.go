// Package custom answers questions through a self-hosted endpoint whose
// path and body shape are not known in advance. It probes a fixed list of
// candidate paths, one at a time, until one returns recognizable text.
package custom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/internal/classify"
)

const (
	// DefaultTimeout bounds each probe.
	DefaultTimeout = 30 * time.Second

	// DefaultModel is the model name sent in schemaB bodies.
	DefaultModel = "gpt-3.5-turbo"

	maxBody = 64 << 10
)

// Client probes custom endpoints.
type Client struct {
	timeout    time.Duration
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the discovery client.
type ClientOption func(*Client)

// WithTimeout overrides the per-probe timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithModel sets the model name sent in schemaB bodies.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient sets the HTTP client used for probes.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Every probe is logged at info level.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a discovery client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		timeout:    DefaultTimeout,
		model:      DefaultModel,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call answers req through endpoint. Candidates are tried strictly in order.
// The first 2xx response with recognizable text is returned; 401, 403 and
// 429 end the search at once; anything else moves on to the next candidate.
// On failure the error is a *DiscoveryError.
func (c *Client) Call(ctx context.Context, req quizsolver.Request, endpoint string) (quizsolver.AnswerResult, error) {
	base, err := normalize(endpoint)
	if err != nil {
		return quizsolver.AnswerResult{}, &DiscoveryError{
			Endpoint: endpoint,
			Err:      quizsolver.NewError(quizsolver.KindUnknown, fmt.Sprintf("Invalid endpoint URL: %s", endpoint), err),
		}
	}

	mode := req.Mode.Normalize()
	prompt := quizsolver.BuildPrompt(req)
	attempts := make([]ProbeAttempt, 0, len(Candidates))

	for i, suffix := range Candidates {
		target := resolve(base, suffix)
		schema := SchemaFor(target.Path)

		text, attempt, stop := c.probe(ctx, target.String(), schema, prompt, mode)
		attempt.Path = target.Path
		attempts = append(attempts, attempt)

		c.logger.Info("probe attempt",
			"attempt", i+1,
			"path", attempt.Path,
			"schema", schema,
			"status", attempt.Status,
			"kind", attempt.Kind,
		)

		if text != "" {
			return quizsolver.AnswerResult{Text: text, Mode: mode}, nil
		}
		if stop != nil {
			return quizsolver.AnswerResult{}, &DiscoveryError{Endpoint: base.String(), Attempts: attempts, Err: stop}
		}
		if ctx.Err() != nil {
			// The caller gave up; later probes would fail the same way.
			return quizsolver.AnswerResult{}, &DiscoveryError{
				Endpoint: base.String(),
				Attempts: attempts,
				Err:      classify.Error(ctx.Err()),
			}
		}
	}

	return quizsolver.AnswerResult{}, exhausted(base.String(), attempts)
}

// probe issues one POST. It returns the answer text on success, or the
// attempt record plus a non-nil error when the search must stop.
func (c *Client) probe(ctx context.Context, target string, schema Schema, prompt string, mode quizsolver.Mode) (string, ProbeAttempt, *quizsolver.Error) {
	attempt := ProbeAttempt{Schema: schema}

	body, err := c.body(schema, prompt, mode)
	if err != nil {
		attempt.Kind = quizsolver.KindUnknown
		attempt.Detail = err.Error()
		return "", attempt, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		attempt.Kind = quizsolver.KindUnknown
		attempt.Detail = err.Error()
		return "", attempt, nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		e := classify.Error(err)
		attempt.Kind = e.Kind
		attempt.Detail = e.Msg
		return "", attempt, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	attempt.Status = resp.StatusCode
	if err != nil {
		e := classify.Error(err)
		attempt.Kind = e.Kind
		attempt.Detail = e.Msg
		return "", attempt, nil
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		text, strategy, ok := Extract(raw)
		if !ok {
			attempt.Kind = quizsolver.KindFormatMismatch
			attempt.Detail = "no recognized answer field"
			return "", attempt, nil
		}
		c.logger.Debug("probe matched", "path", target, "strategy", strategy)
		return text, attempt, nil
	}

	e := classify.Status(resp.StatusCode, snippet(raw), resp.Header.Get("Retry-After"))
	attempt.Kind = e.Kind
	attempt.Detail = http.StatusText(resp.StatusCode)

	switch e.Kind {
	case quizsolver.KindAuth, quizsolver.KindRateLimit:
		return "", attempt, e
	}
	return "", attempt, nil
}

// body marshals the request body for schema.
func (c *Client) body(schema Schema, prompt string, mode quizsolver.Mode) ([]byte, error) {
	p := quizsolver.ProfileFor(mode)
	if schema == SchemaA {
		return json.Marshal(schemaABody{
			Contents: []schemaAContent{{Parts: []schemaAPart{{Text: prompt}}}},
			GenerationConfig: schemaAConfig{
				Temperature:     p.Temperature,
				TopK:            p.TopK,
				TopP:            p.TopP,
				MaxOutputTokens: p.MaxTokens,
			},
		})
	}
	return json.Marshal(schemaBBody{
		Model:       c.model,
		Messages:    []schemaBMessage{{Role: "user", Content: prompt}},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
}

type schemaABody struct {
	Contents         []schemaAContent `json:"contents"`
	GenerationConfig schemaAConfig    `json:"generationConfig"`
}

type schemaAContent struct {
	Parts []schemaAPart `json:"parts"`
}

type schemaAPart struct {
	Text string `json:"text"`
}

type schemaAConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type schemaBBody struct {
	Model       string           `json:"model"`
	Messages    []schemaBMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

type schemaBMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
