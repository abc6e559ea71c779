// Package google answers questions through the Gemini generateContent API.
package google

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/internal/classify"
	"google.golang.org/genai"
)

const (
	// DefaultBaseURL is the public Gemini API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultAPIVersion is the API version path segment.
	DefaultAPIVersion = "v1beta"

	// DefaultTimeout bounds a single call.
	DefaultTimeout = 30 * time.Second
)

// Client issues one generateContent call per question.
type Client struct {
	model      ChatModel
	baseURL    string
	apiVersion string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the model used for requests.
func WithModel(model ChatModel) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL overrides the API host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets the HTTP client whose transport carries requests.
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

// New creates a Google client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		model:      DefaultChatModel,
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call answers req using cred as the API key. Exactly one HTTP request is made.
func (c *Client) Call(ctx context.Context, req quizsolver.Request, cred quizsolver.Credential) (quizsolver.AnswerResult, error) {
	mode := req.Mode.Normalize()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rec := newRecorder(c.httpClient)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cred.Raw,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: rec.client(),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	})
	if err != nil {
		return quizsolver.AnswerResult{}, classify.Error(err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model.String(), genai.Text(quizsolver.BuildPrompt(req)), generationConfig(mode))
	if err != nil {
		classified := wrapError(err, rec)
		c.logger.Warn("gemini request failed",
			"model", c.model,
			"status", classified.Code,
			"kind", classified.Kind,
			"error", err,
		)
		return quizsolver.AnswerResult{}, classified
	}

	text, ok := extractText(resp)
	if !ok {
		c.logger.Warn("gemini response has no candidate text", "model", c.model)
		return quizsolver.AnswerResult{}, quizsolver.NewError(quizsolver.KindFormatMismatch, "", nil)
	}

	return quizsolver.AnswerResult{Text: text, Mode: mode}, nil
}

func generationConfig(mode quizsolver.Mode) *genai.GenerateContentConfig {
	p := quizsolver.ProfileFor(mode)
	return &genai.GenerateContentConfig{
		Temperature:     ptr(float32(p.Temperature)),
		TopK:            ptr(float32(p.TopK)),
		TopP:            ptr(float32(p.TopP)),
		MaxOutputTokens: int32(p.MaxTokens),
	}
}

// extractText returns the text of the first candidate's parts.
func extractText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

func ptr[T any](v T) *T { return &v }
