package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// DetectProvider infers the provider from a model name prefix. Returns
// LLMProviderNone when the model name matches neither family.
func DetectProvider(model string) common.LLMProvider {
	switch {
	case strings.HasPrefix(model, "claude"):
		return common.LLMProviderClaude
	case strings.HasPrefix(model, "gemini"):
		return common.LLMProviderGemini
	default:
		return common.LLMProviderNone
	}
}

// NewLLMService creates the appropriate LLM service implementation based on
// configuration. Returns (nil, nil) when no provider is configured; callers
// treat a nil service as "use heuristic analysis".
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderNone
	}

	switch provider {
	case common.LLMProviderNone:
		logger.Info().Msg("No LLM provider configured, analysis will use heuristics")
		return nil, nil

	case common.LLMProviderGemini:
		logger.Info().Str("provider", "gemini").Str("model", cfg.Gemini.Model).Msg("Initializing LLM service")
		return NewGeminiService(&cfg.Gemini, logger)

	case common.LLMProviderClaude:
		logger.Info().Str("provider", "claude").Str("model", cfg.Claude.Model).Msg("Initializing LLM service")
		return NewClaudeService(&cfg.Claude, logger)

	default:
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'gemini', 'claude' or 'none'", provider)
	}
}
