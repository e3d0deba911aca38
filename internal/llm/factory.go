package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/psychometric/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry, metrics and logging
// middleware. obs may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, obs Observer) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → retry → metrics → logging → base
	var p Provider = WithLogging(base, eventRepo)
	if obs != nil {
		p = WithMetrics(p, obs)
	}
	return WithRetry(p, cfg.Retry), nil
}

// NewSpeechProvider creates the text-to-speech backend. Speech is only
// offered by Gemini; synthesis is never retried.
func NewSpeechProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, obs Observer) (SpeechProvider, error) {
	var base SpeechProvider
	switch cfg.Provider {
	case "gemini":
		g, err := NewGeminiProvider(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini speech provider: %w", err)
		}
		base = g
	case "mock":
		return NewMockSpeechProvider(), nil
	default:
		return nil, fmt.Errorf("speech synthesis is not available for the %q provider", cfg.Provider)
	}

	var sp SpeechProvider = WithSpeechLogging(base, eventRepo)
	if obs != nil {
		sp = WithSpeechMetrics(sp, obs)
	}
	return sp, nil
}
