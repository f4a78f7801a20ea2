package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mosaibah/askdocs/config"
)

// Provider abstracts a chat-completion and embedding backend.
type Provider interface {
	// Generate returns the model completion for a prompt.
	Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error)
	// GenerateWithTokens additionally reports prompt/completion token usage.
	GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error)
	// Embed returns an embedding vector for the given text.
	Embed(ctx context.Context, text string, model string) ([]float64, error)
	GetAvailableModels() []string
	GetModelInfo(model string) (ModelInfo, error)
	CalculateCost(model string, promptTokens, completionTokens int64) (float64, error)
}

// ModelInfo describes a model's pricing and limits.
type ModelInfo struct {
	Name            string
	MaxTokens       int
	CostPer1KInput  float64
	CostPer1KOutput float64
}

// NewProvider constructs a provider from the named entry in cfg.Providers.
func NewProvider(name string, cfg config.LLMConfig) (Provider, error) {
	p, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("llm: provider %q not configured", name)
	}
	switch strings.ToLower(p.Type) {
	case "openai", "":
		return NewOpenAIProvider(p), nil
	case "gemini":
		return NewGeminiProvider(p), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider type %q", p.Type)
	}
}

// NewDefaultProvider picks the first configured provider, preferring an
// entry literally named after its type.
func NewDefaultProvider(cfg config.LLMConfig) (Provider, error) {
	for _, name := range []string{"openai", "gemini"} {
		if _, ok := cfg.Providers[name]; ok {
			return NewProvider(name, cfg)
		}
	}
	for name := range cfg.Providers {
		return NewProvider(name, cfg)
	}
	return nil, fmt.Errorf("llm: no providers configured")
}
