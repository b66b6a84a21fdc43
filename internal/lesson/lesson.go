// Package lesson talks to the language model backend for the two
// chargeable features: short word definitions and writing review.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lingora/lingora/internal/config"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4-turbo"

// ErrNoAPIKey is returned by NewClient when no API key is configured.
var ErrNoAPIKey = errors.New("language model API key is required")

// ChatClient abstracts the completion API for testing.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps the language model backend with the settings shared by
// all lesson operations.
type Client struct {
	api     ChatClient
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a Client from configuration.
func NewClient(cfg config.OpenAIConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse timeout %q: %w", cfg.Timeout, err)
		}
		timeout = parsed
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "lesson").Logger(),
	}, nil
}

// NewClientWithAPI creates a Client over a custom backend (for testing).
func NewClientWithAPI(api ChatClient, model string, logger zerolog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:     api,
		model:   model,
		timeout: 30 * time.Second,
		logger:  logger.With().Str("component", "lesson").Logger(),
	}
}

// complete runs one chat completion and returns the first choice.
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req.Model = c.model
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
