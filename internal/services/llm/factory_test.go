package llm

import (
	"testing"

	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/arbor"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		model    string
		expected common.LLMProvider
	}{
		{"claude-3-5-haiku-20241022", common.LLMProviderClaude},
		{"gemini-3-flash-preview", common.LLMProviderGemini},
		{"gpt-4", common.LLMProviderNone},
		{"", common.LLMProviderNone},
	}

	for _, tt := range tests {
		if got := DetectProvider(tt.model); got != tt.expected {
			t.Errorf("DetectProvider(%q) = %s, want %s", tt.model, got, tt.expected)
		}
	}
}

func TestNewLLMServiceNoneProvider(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = common.LLMProviderNone

	svc, err := NewLLMService(cfg, arbor.NewLogger())
	if err != nil {
		t.Fatalf("Expected no error for none provider, got %v", err)
	}
	if svc != nil {
		t.Error("Expected nil service for none provider")
	}
}

func TestNewLLMServiceInvalidProvider(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = "openai"

	if _, err := NewLLMService(cfg, arbor.NewLogger()); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNewLLMServiceRequiresAPIKey(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = common.LLMProviderClaude
	cfg.Claude.APIKey = ""

	if _, err := NewLLMService(cfg, arbor.NewLogger()); err == nil {
		t.Error("Expected error for missing Claude API key")
	}
}
