package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

// AnthropicProvider calls the Anthropic Messages API.
// Supports custom BaseURL for Anthropic-compatible APIs.
type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicProvider creates an Anthropic generator.
func NewAnthropicProvider(cfg ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, failure.New(failure.Misconfigured, "anthropic API key not configured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.timeout()}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	p := &AnthropicProvider{
		client:    &client,
		model:     cfg.model(DefaultAnthropicModel),
		maxTokens: cfg.maxTokens(),
	}
	L_debug("llm: anthropic provider created", "model", p.model, "maxTokens", p.maxTokens)
	return p, nil
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

// Generate sends one message and concatenates the text blocks of the reply.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(p.maxTokens),
		Temperature: anthropic.Float(DefaultTemperature),
		System:      []anthropic.TextBlockParam{{Text: SystemPrompt()}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(UserPrompt(req))),
		},
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
			L_error("llm: anthropic request failed", "model", p.model, "status", status)
		}
		return "", classify("anthropic", status, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := CleanResponse(b.String())
	if string(msg.StopReason) == "refusal" {
		return "", failure.Blocked("refusal", nil)
	}
	if text == "" {
		return "", failure.Newf(failure.Malformed, "Generation finished with reason: %s", msg.StopReason)
	}
	L_debug("llm: anthropic response", "model", p.model, "stop", msg.StopReason,
		"inputTokens", msg.Usage.InputTokens, "outputTokens", msg.Usage.OutputTokens)
	return text, nil
}
