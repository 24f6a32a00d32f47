// Package llm dispatches chat-completion calls to OpenAI-compatible model
// backends with bounded timeouts, retries and exponential backoff.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Chungws/lmarena-clone/internal/registry"
	"github.com/Chungws/lmarena-clone/pkg/logger"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
)

// ErrEmptyResponse marks a well-formed HTTP response whose body carried no
// completion choice. Treated as transient, like the upstream returning 5xx.
var ErrEmptyResponse = errors.New("no completion choice in response")

// Message is one role-tagged turn sent to a backend.
type Message struct {
	Role    string
	Content string
}

// Completion is a successful dispatch result.
type Completion struct {
	Content   string
	LatencyMS int64
	ModelID   string
}

// DispatchError is the single synthetic failure raised after all attempts
// against one backend are exhausted.
type DispatchError struct {
	ModelID  string
	Attempts int
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to model %s failed after %d attempts: %v", e.ModelID, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Config controls dispatch timeouts and retry behavior.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolTimeout    time.Duration
	RetryAttempts  int
	BackoffBase    time.Duration
}

// Client issues chat-completion calls. It is safe for concurrent use; the
// two dispatches of one battle share the underlying HTTP transport.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a dispatcher with a transport honoring the configured
// per-phase timeouts.
func NewClient(cfg Config) *Client {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: cfg.WriteTimeout,
		IdleConnTimeout:       cfg.PoolTimeout,
		MaxIdleConnsPerHost:   8,
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: transport,
		},
	}
}

// Complete sends the full turn history to one backend and returns the
// completion with the wall-clock latency of the successful attempt. It
// retries transient failures with exponential backoff (base, 2x base, 4x
// base, ...); the delay is skipped after the final attempt. Context
// cancellation aborts immediately.
func (c *Client) Complete(ctx context.Context, model registry.Model, history []Message) (*Completion, error) {
	apiConfig := openai.DefaultConfig(model.APIKey())
	apiConfig.BaseURL = model.BaseURL
	apiConfig.HTTPClient = c.httpClient
	apiClient := openai.NewClientWithConfig(apiConfig)

	req := openai.ChatCompletionRequest{
		Model:       model.Model,
		Messages:    toChatMessages(history),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}

	var lastErr error
	attemptsMade := 0

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		attemptsMade = attempt
		start := time.Now()
		resp, err := apiClient.CreateChatCompletion(ctx, req)
		if err == nil && len(resp.Choices) == 0 {
			err = ErrEmptyResponse
		}

		if err == nil {
			latency := time.Since(start).Milliseconds()
			logger.Info("LLM dispatch succeeded",
				"model", model.ID,
				"latencyMs", latency,
				"attempt", attempt,
			)
			return &Completion{
				Content:   resp.Choices[0].Message.Content,
				LatencyMS: latency,
				ModelID:   model.ID,
			}, nil
		}

		lastErr = err
		logger.Warn("LLM dispatch attempt failed",
			"model", model.ID,
			"attempt", attempt,
			"maxAttempts", c.cfg.RetryAttempts,
			"error", err,
		)

		if ctx.Err() != nil {
			break
		}

		if attempt < c.cfg.RetryAttempts {
			delay := c.cfg.BackoffBase * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, &DispatchError{ModelID: model.ID, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
	}

	return nil, &DispatchError{ModelID: model.ID, Attempts: attemptsMade, Err: lastErr}
}

func toChatMessages(history []Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return messages
}
