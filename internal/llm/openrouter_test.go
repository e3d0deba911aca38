package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// openRouterRequest is the subset of a chat completion request the tests
// inspect.
type openRouterRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func newTestOpenRouter(t *testing.T, handler http.HandlerFunc) *OpenRouterProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-exp",
		BaseURL: server.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func writeCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "gen-test",
		"object":  "chat.completion",
		"model":   model,
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
	})
}

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantErr string
	}{
		{"valid", OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-3-haiku"}, ""},
		{"missing key", OpenRouterConfig{Model: "anthropic/claude-3-haiku"}, "API key"},
		{"missing model", OpenRouterConfig{APIKey: "sk-or-test"}, "model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// Vendor-qualified IDs are not mapped.
			if p.ModelID() != tt.cfg.Model {
				t.Errorf("model = %q, want %q", p.ModelID(), tt.cfg.Model)
			}
		})
	}
}

func TestOpenRouterProvider_SendsPhotoWithTitle(t *testing.T) {
	var body openRouterRequest
	var title string
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("X-Title")
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(w, "google/gemini-2.0-flash-exp", `{"summary":"ok"}`)
	})

	resp, err := p.Generate(context.Background(), Request{
		System: "You are a psychologist.",
		Messages: []Message{{
			Role:        RoleUser,
			Content:     "Analyze this profile.",
			Attachments: []Attachment{{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 16 {
		t.Errorf("total tokens = %d, want 16", resp.Usage.TotalTokens)
	}
	if title != openRouterTitle {
		t.Errorf("X-Title = %q, want %q", title, openRouterTitle)
	}
	if body.Model != "google/gemini-2.0-flash-exp" {
		t.Errorf("model = %q", body.Model)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(body.Messages))
	}

	var parts []map[string]any
	if err := json.Unmarshal(body.Messages[1].Content, &parts); err != nil {
		t.Fatalf("expected multi-part content, got %s", body.Messages[1].Content)
	}
	if len(parts) != 2 || parts[1]["type"] != "image_url" {
		t.Fatalf("expected text and image parts, got %v", parts)
	}
	img, _ := parts[1]["image_url"].(map[string]any)
	if url, _ := img["url"].(string); url != "data:image/jpeg;base64,/9j/" {
		t.Errorf("image url = %q", url)
	}
}

func TestOpenRouterProvider_RequestModelOverride(t *testing.T) {
	var body openRouterRequest
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeCompletion(w, body.Model, `"ok"`)
	})

	resp, err := p.Generate(context.Background(), Request{
		Model:    "anthropic/claude-3.5-sonnet",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Model != "anthropic/claude-3.5-sonnet" || resp.Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("model = %q (served %q), want override", body.Model, resp.Model)
	}
}

func TestOpenRouterProvider_RejectsVoiceClip(t *testing.T) {
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})
	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{
			Role:        RoleUser,
			Content:     "Which option did the user say?",
			Attachments: []Attachment{{MIMEType: "audio/webm", Data: []byte{1, 2}}},
		}},
	})
	var unsupported *ErrUnsupportedInput
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedInput, got: %T (%v)", err, err)
	}
	if unsupported.Provider != "openrouter" {
		t.Errorf("provider = %q, want openrouter", unsupported.Provider)
	}
}

func TestOpenRouter_NoSpeech(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openrouter"
	cfg.OpenRouter.APIKey = "sk-or-test"

	if cfg.SupportsSpeech() {
		t.Error("openrouter should not offer speech")
	}
	if _, err := NewSpeechProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Error("expected error creating an openrouter speech provider")
	}
}
