// In file: internal/llm/client.go

// Package llm contains the adapters to the external model provider: the
// decision engine the orchestration loop consults, the generator the
// response composer streams answers from, and the Redis-backed profiler and
// attachment cache that sit around them.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// GenerationConfig holds the parameters that control the model's generation behavior.
type GenerationConfig struct {
	// Controls randomness. A lower value makes the output more deterministic.
	// Using a pointer allows us to distinguish between a value of 0.0 and an unset value.
	Temperature *float32
	// The maximum number of tokens to generate in the response.
	MaxTokens int
	// An alternative to sampling with temperature, called nucleus sampling.
	TopP *float32
}

// Decider is the decision-engine contract. It matches the orchestration
// loop's DecisionClient so adapters and decorators plug in directly.
type Decider interface {
	Decide(ctx context.Context, history []session.Turn, catalog []tools.Tool, instructions string) (*api.Decision, error)
}

// =================================================================================
// Gemini Client
// =================================================================================

// GeminiClient owns the connection to Google's Gemini API and hands out
// per-call model handles, so concurrent callers never share mutable model
// settings.
type GeminiClient struct {
	client  *genai.Client
	modelID string
	config  *GenerationConfig
}

// NewGeminiClient connects to the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, modelID string, config *GenerationConfig) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if modelID == "" {
		modelID = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelID: modelID, config: config}, nil
}

// ModelID returns the model every call is made against.
func (c *GeminiClient) ModelID() string {
	return c.modelID
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// model returns a fresh model handle with the generation settings applied.
func (c *GeminiClient) model() *genai.GenerativeModel {
	m := c.client.GenerativeModel(c.modelID)
	cfg := c.config
	if cfg == nil {
		cfg = &GenerationConfig{}
	}
	if cfg.Temperature != nil {
		m.SetTemperature(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		m.SetTopP(*cfg.TopP)
	}
	if cfg.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(cfg.MaxTokens))
	} else {
		m.SetMaxOutputTokens(defaultMaxOutputTokens)
	}
	return m
}
