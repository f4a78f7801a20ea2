package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/httpx"
)

// preferred generation models in fallback order, used when the
// configuration does not pin a model.
var geminiPreferredModels = []string{
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-1.0-pro",
}

// GeminiProvider talks to the Google Generative Language REST API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	models  map[string]config.LLMModel
	client  *httpx.Client
	logger  *log.Logger
}

func NewGeminiProvider(cfg config.LLMProvider) *GeminiProvider {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  cfg.Models,
		client:  httpx.NewClient(timeout, cfg.MaxRetries, 500*time.Millisecond),
		logger:  log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	text, _, _, err := p.GenerateWithTokens(ctx, prompt, model, options)
	return text, err
}

func (p *GeminiProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	candidates := []string{p.apiModelName(model)}
	if model == "" {
		candidates = geminiPreferredModels
	}

	req := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}, Role: "user"}},
	}
	if t, ok := options["temperature"].(float64); ok {
		req.GenerationConfig = &geminiGenerationConfig{Temperature: &t}
	}

	var lastErr error
	for _, m := range candidates {
		url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, m, p.apiKey)
		var resp geminiGenerateResponse
		err := p.client.DoJSON(ctx, http.MethodPost, url, nil, req, &resp)
		if err == nil && resp.Error != nil {
			err = fmt.Errorf("%s", resp.Error.Message)
		}
		if err == nil && len(resp.Candidates) == 0 {
			err = fmt.Errorf("empty response")
		}
		if err != nil {
			lastErr = fmt.Errorf("gemini generate (%s): %w", m, err)
			p.logger.Printf("model %s failed, trying next: %v", m, err)
			continue
		}
		var text string
		for _, part := range resp.Candidates[0].Content.Parts {
			text += part.Text
		}
		return text, resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount, nil
	}
	return "", 0, 0, lastErr
}

type geminiEmbedRequest struct {
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *GeminiProvider) Embed(ctx context.Context, text string, model string) ([]float64, error) {
	if model == "" {
		model = "text-embedding-004"
	}
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", p.baseURL, p.apiModelName(model), p.apiKey)
	req := geminiEmbedRequest{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}
	var resp geminiEmbedResponse
	if err := p.client.DoJSON(ctx, http.MethodPost, url, nil, req, &resp); err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("gemini embed: %s", resp.Error.Message)
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embed: empty response")
	}
	return resp.Embedding.Values, nil
}

func (p *GeminiProvider) GetAvailableModels() []string {
	names := make([]string, 0, len(p.models))
	for name := range p.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *GeminiProvider) GetModelInfo(model string) (ModelInfo, error) {
	m, ok := p.models[model]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unknown model: %s", model)
	}
	return ModelInfo{
		Name:            m.Name,
		MaxTokens:       m.MaxTokens,
		CostPer1KInput:  m.CostPer1K,
		CostPer1KOutput: m.CostPer1KOutput,
	}, nil
}

func (p *GeminiProvider) CalculateCost(model string, promptTokens, completionTokens int64) (float64, error) {
	info, err := p.GetModelInfo(model)
	if err != nil {
		return 0, err
	}
	return float64(promptTokens)/1000*info.CostPer1KInput +
		float64(completionTokens)/1000*info.CostPer1KOutput, nil
}

func (p *GeminiProvider) apiModelName(model string) string {
	if m, ok := p.models[model]; ok && m.APIName != "" {
		return m.APIName
	}
	return model
}
