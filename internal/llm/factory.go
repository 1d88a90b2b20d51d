package llm

import (
	"context"
	"fmt"
	"time"

	"genui/internal/config"
)

// NewFromConfig builds a Client for the configured provider and model.
// The model argument lets callers pick the role-specific model from config
// (response vs profile analysis).
func NewFromConfig(ctx context.Context, cfg config.LLMConfig, model string) (Client, error) {
	switch cfg.Provider {
	case "openai":
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		return NewOpenAIClientWithConfig(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   model,
			Timeout: timeout,
		}), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
