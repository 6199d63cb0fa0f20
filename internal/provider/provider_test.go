package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"mentat/internal/config"
	"mentat/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOllama_Chat(t *testing.T) {
	var gotReq ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message:         ollamaMsg{Role: "assistant", Content: "hello there"},
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 10,
			EvalCount:       5,
		})
	}))
	defer srv.Close()

	p := NewOllamaWithClient(OllamaConfig{APIBase: srv.URL, Logger: testLogger()}, srv.Client())
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "sys"},
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleTool, Content: "tool output"},
		},
		Temperature: 0.7,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if resp.Content != "hello there" || resp.FinishReason != "stop" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("expected usage 15, got %d", resp.Usage.TotalTokens)
	}

	if gotReq.Model != ollamaDefaultModel {
		t.Fatalf("expected default model, got %q", gotReq.Model)
	}
	if gotReq.Stream {
		t.Fatal("expected non-streaming request")
	}
	if len(gotReq.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(gotReq.Messages))
	}
	// Tool results travel as user turns on the wire.
	if gotReq.Messages[2].Role != "user" {
		t.Fatalf("expected tool message mapped to user, got %q", gotReq.Messages[2].Role)
	}
	if gotReq.Options["temperature"] != 0.7 {
		t.Fatalf("expected temperature option, got %v", gotReq.Options)
	}
}

func TestOllama_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaWithClient(OllamaConfig{APIBase: srv.URL, Logger: testLogger()}, srv.Client())
	if err := p.Healthy(context.Background()); err != nil {
		t.Fatalf("healthy: %v", err)
	}
}

func TestOpenAI_Chat(t *testing.T) {
	var gotAuth string
	var gotReq oaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(oaiResponse{
			Choices: []oaiChoice{{
				Message:      oaiMessage{Role: "assistant", Content: "sure"},
				FinishReason: "stop",
			}},
			Usage: oaiUsage{PromptTokens: 20, CompletionTokens: 4, TotalTokens: 24},
		})
	}))
	defer srv.Close()

	p := NewOpenAIWithClient(OpenAIConfig{APIKey: "sk-test", APIBase: srv.URL, Model: "gpt-4o-mini", Logger: testLogger()}, srv.Client())
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if resp.Content != "sure" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 24 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", gotReq.Model)
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(oaiResponse{})
	}))
	defer srv.Close()

	p := NewOpenAIWithClient(OpenAIConfig{APIKey: "sk", APIBase: srv.URL, Logger: testLogger()}, srv.Client())
	if _, err := p.Chat(context.Background(), domain.ChatRequest{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatRole(t *testing.T) {
	cases := map[string]string{
		domain.RoleUser:      "user",
		domain.RoleAssistant: "assistant",
		domain.RoleSystem:    "system",
		domain.RoleTool:      "user",
		"other":              "user",
	}
	for in, want := range cases {
		if got := chatRole(in); got != want {
			t.Fatalf("chatRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func factoryConfig() *config.Config {
	cfg := config.Defaults()
	cfg.General.DefaultProvider = "ollama"
	cfg.Providers["custom"] = config.ProviderConfig{
		Enabled: true,
		APIBase: "https://llm.example.com/v1",
		APIKey:  "key",
	}
	return cfg
}

func TestFactory_GetCaches(t *testing.T) {
	f := NewFactory(factoryConfig(), testLogger())

	a, err := f.Get("ollama")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, err := f.Get("ollama")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a != b {
		t.Fatal("expected cached provider instance")
	}

	def, err := f.DefaultProvider()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if def != a {
		t.Fatal("expected default to resolve to ollama")
	}
}

func TestFactory_Unknown(t *testing.T) {
	f := NewFactory(factoryConfig(), testLogger())
	if _, err := f.Get("nope"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestFactory_Disabled(t *testing.T) {
	f := NewFactory(factoryConfig(), testLogger())
	if _, err := f.Get("openai"); err == nil {
		t.Fatal("expected error for disabled provider")
	}
}

func TestFactory_OpenAICompatibleFallback(t *testing.T) {
	f := NewFactory(factoryConfig(), testLogger())
	p, err := f.Get("custom")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name() != "openai" {
		t.Fatalf("expected openai-compatible fallback, got %q", p.Name())
	}
}
