package llm

import "time"

// Generation parameters sent with every rewrite.
const (
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 2048
	DefaultTopP            = 0.8
	DefaultTopK            = 40
	DefaultRequestTimeout  = 60 * time.Second
)

// Default models per provider.
const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// ProviderConfig configures the generation backend.
type ProviderConfig struct {
	Provider       string `toml:"provider" json:"provider"` // "gemini", "openai", "anthropic"
	APIKey         string `toml:"api_key" json:"apiKey,omitempty"`
	Model          string `toml:"model" json:"model,omitempty"`
	BaseURL        string `toml:"base_url" json:"baseURL,omitempty"` // Override endpoint (OpenAI-compatible servers, proxies)
	MaxTokens      int    `toml:"max_tokens" json:"maxTokens,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeoutSeconds,omitempty"`
}

func (c ProviderConfig) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return DefaultMaxOutputTokens
}

func (c ProviderConfig) timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return DefaultRequestTimeout
}

func (c ProviderConfig) model(fallback string) string {
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
