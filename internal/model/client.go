package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/watching-app/watching/internal/metrics"
)

// ChatCompleter is the part of the go-openai client this package uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Options struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type Client struct {
	api  ChatCompleter
	opts Options
}

// NewClient talks to any OpenAI-compatible endpoint at baseURL.
func NewClient(baseURL, apiKey string, opts Options) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return NewClientWithAPI(openai.NewClientWithConfig(cfg), opts)
}

func NewClientWithAPI(api ChatCompleter, opts Options) *Client {
	return &Client{api: api, opts: opts}
}

// InferenceError means the oracle could not produce a completion.
type InferenceError struct {
	Purpose string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Purpose, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

func IsInferenceError(err error) bool {
	var target *InferenceError
	return errors.As(err, &target)
}

// Request is one system+user exchange.
type Request struct {
	// Purpose labels logs and metrics, e.g. "generate" or "repair".
	Purpose     string
	System      string
	User        string
	Temperature float32
}

// Complete returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		metrics.OracleRequests.WithLabelValues(req.Purpose, "error").Inc()
		return "", &InferenceError{Purpose: req.Purpose, Err: err}
	}

	if len(resp.Choices) == 0 {
		metrics.OracleRequests.WithLabelValues(req.Purpose, "empty").Inc()
		return "", &InferenceError{Purpose: req.Purpose, Err: errors.New("completion has no choices")}
	}

	metrics.OracleRequests.WithLabelValues(req.Purpose, "ok").Inc()
	return resp.Choices[0].Message.Content, nil
}
