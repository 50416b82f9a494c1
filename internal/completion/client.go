// Copyright 2025 MindSweep AI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package completion sends composed prompts to a hosted text-generation
// model, with a single fallback attempt against a secondary model when the
// primary fails.
package completion

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Probe statuses reported by the AI health endpoint
const (
	StatusWorking        = "working"
	StatusFallbackActive = "fallback-active"
	StatusDown           = "down"
)

// ProbePrompt is the trivial prompt used to check model reachability.
const ProbePrompt = "Reply with the single word: ok"

// chatCompleter is the slice of the OpenAI-compatible API the client uses.
// *openai.Client satisfies it; tests substitute a stub.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds completion client configuration.
type Config struct {
	APIKey      string
	Endpoint    string
	Primary     string
	Fallback    string
	MaxTokens   int
	Temperature float32
}

// Result is a successful completion and the model that served it.
type Result struct {
	Text  string
	Model string
}

// ProbeResult reports model reachability for the AI health endpoint.
type ProbeResult struct {
	Status string
	Model  string
}

// Error is the combined failure returned when both the primary and the
// fallback attempt fail.
type Error struct {
	Primary     string
	Fallback    string
	PrimaryErr  error
	FallbackErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("completion failed: primary %s: %v; fallback %s: %v",
		e.Primary, e.PrimaryErr, e.Fallback, e.FallbackErr)
}

func (e *Error) Unwrap() error {
	return e.FallbackErr
}

// Client calls a hosted completion API with an at-most-two-attempts
// strategy: the primary model once, then the fallback once with the same
// prompt. No backoff, no further retries.
type Client struct {
	api         chatCompleter
	logger      *zap.Logger
	modelPair   *ModelPair
	maxTokens   int
	temperature float32
}

// NewClient creates a completion client against an OpenAI-compatible
// endpoint.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Primary == "" || cfg.Fallback == "" {
		return nil, fmt.Errorf("primary and fallback model identifiers are required")
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		apiConfig.BaseURL = cfg.Endpoint
	}

	client := &Client{
		api:         openai.NewClientWithConfig(apiConfig),
		logger:      logger,
		modelPair:   NewModelPair(cfg.Primary, cfg.Fallback),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}

	client.logger.Info("Completion client initialized",
		zap.String("primary_model", cfg.Primary),
		zap.String("fallback_model", cfg.Fallback),
		zap.String("endpoint", apiConfig.BaseURL),
	)

	return client, nil
}

// SetModels swaps the configured model pair, used by config hot-reload.
func (c *Client) SetModels(primary, fallback string) {
	c.modelPair.Set(primary, fallback)
	c.logger.Info("Completion models updated",
		zap.String("primary_model", primary),
		zap.String("fallback_model", fallback),
	)
}

// Models returns the configured primary and fallback model identifiers.
func (c *Client) Models() (string, string) {
	return c.modelPair.Get()
}

// Complete sends the prompt to the primary model; on any failure it logs the
// error and retries once against the fallback with the same prompt. Both
// failing produces a single combined *Error.
func (c *Client) Complete(ctx context.Context, promptText string) (*Result, error) {
	primary, fallback := c.modelPair.Get()

	text, err := c.generate(ctx, primary, promptText)
	if err == nil {
		return &Result{Text: text, Model: primary}, nil
	}

	c.logger.Warn("Primary model failed, attempting fallback",
		zap.String("primary_model", primary),
		zap.String("fallback_model", fallback),
		zap.Error(err),
	)

	fallbackText, fallbackErr := c.generate(ctx, fallback, promptText)
	if fallbackErr != nil {
		c.logger.Error("Fallback model also failed",
			zap.String("fallback_model", fallback),
			zap.NamedError("primary_error", err),
			zap.NamedError("fallback_error", fallbackErr),
		)
		return nil, &Error{
			Primary:     primary,
			Fallback:    fallback,
			PrimaryErr:  err,
			FallbackErr: fallbackErr,
		}
	}

	c.logger.Info("Fallback model served the request after primary failure",
		zap.String("fallback_model", fallback),
	)

	return &Result{Text: fallbackText, Model: fallback}, nil
}

// Probe checks model reachability with a trivial prompt. It reports which
// tier is serving so operators can see a degraded primary before users do.
func (c *Client) Probe(ctx context.Context) ProbeResult {
	primary, fallback := c.modelPair.Get()

	_, err := c.generate(ctx, primary, ProbePrompt)
	if err == nil {
		return ProbeResult{Status: StatusWorking, Model: primary}
	}
	c.logger.Warn("Primary model probe failed",
		zap.String("primary_model", primary),
		zap.Error(err),
	)

	if _, err := c.generate(ctx, fallback, ProbePrompt); err == nil {
		return ProbeResult{Status: StatusFallbackActive, Model: fallback}
	}

	return ProbeResult{Status: StatusDown, Model: ""}
}

// generate performs one full independent call with the full prompt.
func (c *Client) generate(ctx context.Context, model, promptText string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: promptText},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", model, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}

	return resp.Choices[0].Message.Content, nil
}
