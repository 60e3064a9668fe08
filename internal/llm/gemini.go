package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider calls the Gemini generateContent REST endpoint.
type GeminiProvider struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

// NewGeminiProvider creates a Gemini generator.
func NewGeminiProvider(cfg ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, failure.New(failure.Misconfigured, "gemini API key not configured")
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = geminiBaseURL
	}

	p := &GeminiProvider{
		apiKey:    cfg.APIKey,
		model:     cfg.model(DefaultGeminiModel),
		baseURL:   baseURL,
		maxTokens: cfg.maxTokens(),
		client:    &http.Client{Timeout: cfg.timeout()},
	}
	L_debug("llm: gemini provider created", "model", p.model, "baseURL", baseURL)
	return p, nil
}

func (g *GeminiProvider) Name() string  { return "gemini" }
func (g *GeminiProvider) Model() string { return g.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiSafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

type geminiResponse struct {
	Candidates []struct {
		Content       *geminiContent       `json:"content"`
		FinishReason  string               `json:"finishReason"`
		SafetyRatings []geminiSafetyRating `json:"safetyRatings"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason   string               `json:"blockReason"`
		SafetyRatings []geminiSafetyRating `json:"safetyRatings"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends one rewrite request.
func (g *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: BuildPrompt(req)}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     DefaultTemperature,
			MaxOutputTokens: g.maxTokens,
			TopP:            DefaultTopP,
			TopK:            DefaultTopK,
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", failure.Wrap(failure.Malformed, "marshal gemini request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", failure.Wrap(failure.Misconfigured, "create gemini request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	L_debug("llm: sending to gemini", "model", g.model, "textLen", len(req.SelectedText))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", classify("gemini", 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", failure.Wrap(failure.Network, "read gemini response", err)
	}

	var parsed geminiResponse
	parseErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		L_error("llm: gemini request failed", "status", resp.StatusCode, "body", string(raw))
		msg := fmt.Sprintf("API request failed: %d", resp.StatusCode)
		if parseErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = fmt.Sprintf("API request failed: %d %s", resp.StatusCode, parsed.Error.Message)
		}
		if kind, ok := ClassifyStatus(resp.StatusCode); ok {
			return "", failure.New(kind, msg)
		}
		return "", failure.New(ClassifyMessage(msg), msg)
	}
	if parseErr != nil {
		return "", failure.Wrap(failure.Malformed, "invalid response format from API", parseErr)
	}

	return geminiText(&parsed)
}

// geminiText extracts the generated text or the reason there is none.
func geminiText(r *geminiResponse) (string, error) {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return "", failure.Blocked(r.PromptFeedback.BlockReason, flaggedCategories(r.PromptFeedback.SafetyRatings))
	}
	if len(r.Candidates) == 0 {
		return "", failure.New(failure.Malformed, "invalid response format from API")
	}

	c := r.Candidates[0]
	var b strings.Builder
	if c.Content != nil {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	text := CleanResponse(b.String())
	if text != "" {
		return text, nil
	}
	if c.FinishReason == "SAFETY" {
		return "", failure.Blocked(c.FinishReason, flaggedCategories(c.SafetyRatings))
	}
	if c.FinishReason != "" {
		return "", failure.Newf(failure.Malformed, "Generation finished with reason: %s", c.FinishReason)
	}
	return "", failure.New(failure.Malformed, "invalid response format from API")
}

func flaggedCategories(ratings []geminiSafetyRating) []string {
	var cats []string
	for _, r := range ratings {
		if r.Probability != "NEGLIGIBLE" && r.Probability != "LOW" {
			cats = append(cats, r.Category)
		}
	}
	return cats
}
