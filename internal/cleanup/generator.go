package cleanup

import (
	"context"
	"time"

	"github.com/handfreelabs/handfree/internal/config"
)

// Request describes a rewrite prompt for a generative backend.
type Request struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
}

// Chunk represents streamed model output.
type Chunk struct {
	Content string
	Partial bool
	Latency time.Duration
}

// Generator defines a pluggable generative-text backend.
type Generator interface {
	Generate(ctx context.Context, req Request, consumer func(Chunk) error) error
}

// NewGenerator builds the backend selected by cfg, or nil when mode is off.
func NewGenerator(cfg config.LLMConfig, apiKeyFallback string) Generator {
	switch cfg.Mode {
	case "openai":
		key := cfg.APIKey
		if key == "" {
			key = apiKeyFallback
		}
		return NewOpenAIGenerator(cfg.Endpoint, key, cfg.Model)
	case "ollama":
		return NewOllamaGenerator(cfg.Endpoint, cfg.Model)
	case "mock":
		return NewMockGenerator()
	default:
		return nil
	}
}

// RequestFromConfig seeds a request with the configured generation limits.
func RequestFromConfig(cfg config.LLMConfig) Request {
	return Request{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}
}
