package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// TruncationMarker is appended when scraped context exceeds the
// configured character budget.
const TruncationMarker = "... [truncated]"

// Offline is spoken when chat is requested but no client is configured.
const Offline = "Sorry, my chat features are currently offline."

type Config struct {
	APIKey        string
	BaseURL       string // empty = SDK default; set for Groq or a local server
	Model         string
	MaxTokens     int
	Temperature   float64
	AssistantName string
	UserName      string
	HTTPClient    *http.Client
}

type Client struct {
	api         openai.Client
	model       string
	maxTokens   int
	temperature float64
	system      string
	log         *slog.Logger
}

func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		system: fmt.Sprintf("You are %s, a helpful AI assistant for %s. Keep responses concise.",
			cfg.AssistantName, cfg.UserName),
		log: slog.Default().With("part", "llm"),
	}
}

// Chat forwards prompt to the chat-completion endpoint and returns the
// assistant text.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	c.log.Debug("chat request", "chars", len(prompt), "model", c.model)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.system),
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty message content")
	}

	c.log.Debug("chat response", "tokens", resp.Usage.CompletionTokens)
	return content, nil
}

// ChatWithContext submits prompt together with supporting text, which
// is truncated to maxChars first. Used by the scrape pipeline.
func (c *Client) ChatWithContext(ctx context.Context, prompt, contextText string, maxChars int) (string, error) {
	trimmed := TruncateContext(contextText, maxChars)
	if len(trimmed) != len(contextText) {
		c.log.Info("context truncated", "from", len(contextText), "to", len(trimmed))
	}
	return c.Chat(ctx, fmt.Sprintf("%s\n\n### Context Provided:\n%s", prompt, trimmed))
}

// TruncateContext caps s at max characters, appending the truncation
// marker when anything was cut. max <= 0 disables the cap.
func TruncateContext(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + TruncationMarker
}

// SpokenError maps an API failure to a short user-facing sentence.
func SpokenError(err error) string {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return "Chat authentication failed. Check the API key."
		case apierr.StatusCode == http.StatusTooManyRequests:
			return "The chat service is busy right now. Try again shortly."
		case apierr.StatusCode >= 500:
			return "The chat service had an internal error."
		}
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return "I couldn't connect to the chat service."
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		return "The chat usage limit has been reached."
	case strings.Contains(msg, "connection"), strings.Contains(msg, "network"):
		return "I couldn't connect to the chat service."
	}
	return "Sorry, an error occurred processing the chat request."
}
