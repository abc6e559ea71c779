// Package openai answers questions through the chat-completions API.
package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/quizsolver"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1/"

	// DefaultTimeout bounds a single call.
	DefaultTimeout = 30 * time.Second
)

// Client issues one chat-completions call per question.
type Client struct {
	model      ChatModel
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the model used for requests.
func WithModel(model ChatModel) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL overrides the API root. A trailing slash is added when missing.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.baseURL = baseURL
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates an OpenAI client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		model:      DefaultChatModel,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call answers req using cred as the bearer token. The SDK's own retries are
// disabled so exactly one HTTP request is made.
func (c *Client) Call(ctx context.Context, req quizsolver.Request, cred quizsolver.Credential) (quizsolver.AnswerResult, error) {
	mode := req.Mode.Normalize()
	profile := quizsolver.ProfileFor(mode)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var status atomic.Int32
	client := openai.NewClient(
		option.WithAPIKey(cred.Raw),
		option.WithBaseURL(c.baseURL),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
		option.WithMiddleware(func(r *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			resp, err := next(r)
			if resp != nil {
				status.Store(int32(resp.StatusCode))
			}
			return resp, err
		}),
	)

	params := openai.ChatCompletionNewParams{
		Model: c.model.String(),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(quizsolver.BuildPrompt(req)),
		},
		Temperature: openai.Float(profile.Temperature),
		TopP:        openai.Float(profile.TopP),
		MaxTokens:   openai.Int(int64(profile.MaxTokens)),
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		classified := wrapError(err, int(status.Load()))
		c.logger.Warn("openai request failed",
			"model", c.model,
			"status", classified.Code,
			"kind", classified.Kind,
			"error", err,
		)
		return quizsolver.AnswerResult{}, classified
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.Warn("openai response has no choice content", "model", c.model)
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindFormatMismatch, "", nil)
	}

	return quizsolver.AnswerResult{Text: resp.Choices[0].Message.Content, Mode: mode}, nil
}
