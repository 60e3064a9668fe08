package llm

import (
	"strings"

	"github.com/roelfdiedericks/rephrase/internal/failure"
)

// NewGenerator creates a generator from config, dispatching on cfg.Provider.
// An empty provider means gemini.
func NewGenerator(cfg ProviderConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini", "google":
		return NewGeminiProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	default:
		return nil, failure.Newf(failure.Misconfigured, "unknown provider: %s", cfg.Provider)
	}
}
