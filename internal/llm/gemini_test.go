package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roelfdiedericks/rephrase/internal/failure"
)

func geminiServer(t *testing.T, status int, body string, inspect func(*http.Request, geminiRequest)) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		if inspect != nil {
			inspect(r, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewGeminiProvider(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	return p
}

func TestGeminiGenerateSuccess(t *testing.T) {
	p := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"\"Polished text.\""}]},"finishReason":"STOP"}]}`,
		func(r *http.Request, req geminiRequest) {
			if !strings.HasSuffix(r.URL.Path, "/models/"+DefaultGeminiModel+":generateContent") {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if r.URL.Query().Get("key") != "test-key" {
				t.Errorf("api key not sent as query parameter")
			}
			gc := req.GenerationConfig
			if gc.Temperature != 0.3 || gc.MaxOutputTokens != 2048 || gc.TopP != 0.8 || gc.TopK != 40 {
				t.Errorf("unexpected generation config: %+v", gc)
			}
			prompt := req.Contents[0].Parts[0].Text
			if !strings.Contains(prompt, "draft text") || !strings.Contains(prompt, "make it formal") {
				t.Errorf("prompt missing request fields: %q", prompt)
			}
		})

	got, err := p.Generate(context.Background(), Request{SelectedText: "draft text", Instruction: "make it formal"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Polished text." {
		t.Errorf("got %q, want quotes stripped", got)
	}
}

func TestGeminiGenerateFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind failure.Kind
		wantMsg  string
		wantCats []string
	}{
		{
			name:     "prompt blocked",
			status:   http.StatusOK,
			body:     `{"promptFeedback":{"blockReason":"SAFETY","safetyRatings":[{"category":"HARM_CATEGORY_HARASSMENT","probability":"HIGH"},{"category":"HARM_CATEGORY_HATE_SPEECH","probability":"LOW"},{"category":"HARM_CATEGORY_DANGEROUS_CONTENT","probability":"MEDIUM"}]}}`,
			wantKind: failure.ContentBlocked,
			wantMsg:  "SAFETY",
			wantCats: []string{"HARM_CATEGORY_HARASSMENT", "HARM_CATEGORY_DANGEROUS_CONTENT"},
		},
		{
			name:     "finish reason without text",
			status:   http.StatusOK,
			body:     `{"candidates":[{"finishReason":"MAX_TOKENS"}]}`,
			wantKind: failure.Malformed,
			wantMsg:  "Generation finished with reason: MAX_TOKENS",
		},
		{
			name:     "no candidates",
			status:   http.StatusOK,
			body:     `{"candidates":[]}`,
			wantKind: failure.Malformed,
		},
		{
			name:     "not json",
			status:   http.StatusOK,
			body:     `<html>oops</html>`,
			wantKind: failure.Malformed,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind: failure.RateLimited,
			wantMsg:  "Resource has been exhausted",
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"error":{"code":500,"message":"internal"}}`,
			wantKind: failure.Network,
		},
		{
			name:     "bad key",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`,
			wantKind: failure.Misconfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := geminiServer(t, tt.status, tt.body, nil)
			_, err := p.Generate(context.Background(), Request{SelectedText: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if kind := failure.KindOf(err); kind != tt.wantKind {
				t.Fatalf("kind = %q, want %q (err: %v)", kind, tt.wantKind, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
			if tt.wantCats != nil {
				cats := failure.Categories(err)
				if strings.Join(cats, ",") != strings.Join(tt.wantCats, ",") {
					t.Errorf("categories = %v, want %v", cats, tt.wantCats)
				}
			}
		})
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	for _, provider := range []string{"gemini", "openai", "anthropic"} {
		_, err := NewGenerator(ProviderConfig{Provider: provider})
		if !failure.Is(err, failure.Misconfigured) {
			t.Errorf("%s without key: got %v, want Misconfigured", provider, err)
		}
	}
	if _, err := NewGenerator(ProviderConfig{Provider: "cohere", APIKey: "k"}); !failure.Is(err, failure.Misconfigured) {
		t.Errorf("unknown provider: got %v", err)
	}
}

func TestNewGeneratorDefaultsToGemini(t *testing.T) {
	g, err := NewGenerator(ProviderConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if g.Name() != "gemini" || g.Model() != DefaultGeminiModel {
		t.Errorf("got %s/%s", g.Name(), g.Model())
	}
}
