// Package llm wraps OpenAI-compatible chat APIs (SiliconFlow, Moonshot)
// for the summaries that go into the deck.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gemdale/reportkit/internal/retry"
)

var (
	ErrNoKey      = errors.New("llm: api key not configured")
	ErrEmptyReply = errors.New("llm: empty reply")
)

// Client calls one model on one OpenAI-compatible endpoint.
type Client struct {
	api    *openai.Client
	model  string
	vision string
	stats  *Stats
	log    *slog.Logger
}

type Option func(*openai.ClientConfig, *Client)

// WithStats records calls into a shared Stats.
func WithStats(s *Stats) Option {
	return func(_ *openai.ClientConfig, c *Client) { c.stats = s }
}

func WithHTTPClient(h *http.Client) Option {
	return func(cfg *openai.ClientConfig, _ *Client) { cfg.HTTPClient = h }
}

func NewClient(apiKey, baseURL, model string, log *slog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoKey
	}
	if log == nil {
		log = slog.Default()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: 180 * time.Second}
	c := &Client{model: model, log: log}
	for _, o := range opts {
		o(&cfg, c)
	}
	if c.stats == nil {
		c.stats = NewStats(time.Hour)
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c, nil
}

func (c *Client) Model() string {
	return c.model
}

// CompleteOptions tunes a single-turn completion.
type CompleteOptions struct {
	System      string
	MaxTokens   int
	Temperature float32
}

// Complete sends one user prompt and returns the cleaned reply.
func (c *Client) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	var msgs []openai.ChatCompletionMessage
	if opts.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.chat(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	return reply(resp)
}

func (c *Client) chat(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.stats.RecordError()
		err = classify(err)
		c.log.Warn("llm call failed", "model", c.model, "error", err, "retryable", retry.IsRetryable(err))
		return resp, err
	}
	elapsed := time.Since(start)
	c.stats.Record(elapsed, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	c.log.Info("llm call",
		"model", c.model,
		"duration_ms", elapsed.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp, nil
}

// classify maps transient HTTP failures onto *retry.Error.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && retry.IsRetryableStatus(apiErr.HTTPStatusCode) {
		return fmt.Errorf("chat completion: %w", &retry.Error{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && retry.IsRetryableStatus(reqErr.HTTPStatusCode) {
		return fmt.Errorf("chat completion: %w", &retry.Error{StatusCode: reqErr.HTTPStatusCode, Message: string(reqErr.Body)})
	}
	return fmt.Errorf("chat completion: %w", err)
}

func reply(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	text := Clean(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

var (
	thinkRe     = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeBlockRe = regexp.MustCompile("(?s)^```(?:[a-z]+)?\\s*(.*?)\\s*```$")
)

// Clean drops reasoning blocks and a wrapping code fence.
func Clean(s string) string {
	s = strings.TrimSpace(thinkRe.ReplaceAllString(s, ""))
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
