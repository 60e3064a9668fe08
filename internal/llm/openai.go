package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to OpenAI or any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIProvider creates an OpenAI-compatible generator.
// The API key is optional when a custom base URL points at a local server.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	baseURL := cfg.BaseURL
	if apiKey == "" {
		if baseURL == "" {
			return nil, failure.New(failure.Misconfigured, "openai API key not configured")
		}
		apiKey = "not-needed"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/v1") && !strings.HasSuffix(baseURL, "/v1/") {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: cfg.timeout()}

	p := &OpenAIProvider{
		client:    openai.NewClientWithConfig(config),
		model:     cfg.model(DefaultOpenAIModel),
		maxTokens: cfg.maxTokens(),
	}

	displayURL := baseURL
	if displayURL == "" {
		displayURL = "(default)"
	}
	L_debug("llm: openai provider created", "model", p.model, "baseURL", displayURL)
	return p, nil
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

// Generate sends one chat completion.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(req)},
		},
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		status := 0
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		if errors.As(err, &apiErr) {
			status = apiErr.HTTPStatusCode
			L_error("llm: openai request failed", "model", p.model, "status", status, "code", apiErr.Code, "message", apiErr.Message)
		} else if errors.As(err, &reqErr) {
			status = reqErr.HTTPStatusCode
			L_error("llm: openai request failed", "model", p.model, "status", status, "error", reqErr.Err)
		}
		return "", classify("openai", status, err)
	}

	if len(resp.Choices) == 0 {
		return "", failure.New(failure.Malformed, "invalid response format from API")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", failure.Blocked(string(choice.FinishReason), nil)
	}
	text := CleanResponse(choice.Message.Content)
	if text == "" {
		if choice.Message.Refusal != "" {
			return "", failure.Blocked(choice.Message.Refusal, nil)
		}
		return "", failure.Newf(failure.Malformed, "Generation finished with reason: %s", choice.FinishReason)
	}
	L_debug("llm: openai response", "model", p.model, "finish", choice.FinishReason, "tokens", resp.Usage.TotalTokens)
	return text, nil
}
