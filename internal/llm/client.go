// Package llm talks to an OpenAI-compatible chat-completions endpoint (DeepSeek by default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"trivia-chat-service/internal/domain"
)

const (
	DefaultBaseURL     = "https://api.deepseek.com/v1/"
	DefaultModel       = "deepseek-chat"
	DefaultTemperature = 0.6
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 30 * time.Second
)

// Config holds request shaping for the completion service.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
	MaxRetries  int
	HTTPClient  *http.Client
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client implements chat.Completer.
type Client struct {
	api openai.Client
	cfg Config
}

func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm api key is required")
	}
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{api: openai.NewClient(opts...), cfg: cfg}, nil
}

// ServiceError is a non-success answer from the completion service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("completion service status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion service status %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Status() int { return e.StatusCode }

func (e *ServiceError) Unwrap() error { return domain.ErrService }

// Complete forwards the whole history and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, history []domain.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    messages,
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ServiceError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	if len(completion.Choices) == 0 {
		return "", &ServiceError{StatusCode: http.StatusOK, Message: "response has no choices"}
	}
	return completion.Choices[0].Message.Content, nil
}
