package llm

import (
	"testing"
)

func TestNewService_RequiresModel(t *testing.T) {
	cfg := &Config{
		Provider: "openai",
		APIKey:   "test-key",
	}

	_, err := NewService(cfg)
	if err == nil {
		t.Error("NewService() without model should return error")
	}
}

func TestNewService_OpenAI(t *testing.T) {
	cfg := &Config{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		APIKey:      "test-key",
		BaseURL:     "https://api.openai.com/v1",
		MaxTokens:   4096,
		Temperature: 0.5,
	}

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc == nil {
		t.Fatal("NewService() returned nil service")
	}
}

func TestNewService_OllamaDefaults(t *testing.T) {
	cfg := &Config{
		Provider: "ollama",
		Model:    "llama3.1",
	}

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc == nil {
		t.Fatal("NewService() returned nil service")
	}
}

func TestMessageHelpers(t *testing.T) {
	if m := SystemPrompt("be brief"); m.Role != "system" || m.Content != "be brief" {
		t.Errorf("SystemPrompt() = %+v", m)
	}
	if m := UserMessage("hi"); m.Role != "user" {
		t.Errorf("UserMessage() role = %s", m.Role)
	}
	if m := AssistantMessage("ok"); m.Role != "assistant" {
		t.Errorf("AssistantMessage() role = %s", m.Role)
	}
}
