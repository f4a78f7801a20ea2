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

// OpenAIProvider talks to an OpenAI-compatible chat completions API.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	models  map[string]config.LLMModel
	client  *httpx.Client
	logger  *log.Logger
}

func NewOpenAIProvider(cfg config.LLMProvider) *OpenAIProvider {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  cfg.Models,
		client:  httpx.NewClient(timeout, cfg.MaxRetries, 500*time.Millisecond),
		logger:  log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	text, _, _, err := p.GenerateWithTokens(ctx, prompt, model, options)
	return text, err
}

func (p *OpenAIProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	apiModel := p.apiModelName(model)
	req := chatRequest{
		Model:    apiModel,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if t, ok := options["temperature"].(float64); ok {
		req.Temperature = &t
	}
	if mt, ok := options["max_tokens"].(int); ok {
		req.MaxTokens = mt
	}

	var resp chatResponse
	err := p.client.DoJSON(ctx, http.MethodPost, p.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.apiKey}, req, &resp)
	if err != nil {
		return "", 0, 0, fmt.Errorf("openai chat completion: %w", err)
	}
	if resp.Error != nil {
		return "", 0, 0, fmt.Errorf("openai chat completion: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", 0, 0, fmt.Errorf("openai chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string, model string) ([]float64, error) {
	if model == "" {
		model = "text-embedding-3-small"
	}
	req := embeddingRequest{Model: p.apiModelName(model), Input: text}
	var resp embeddingResponse
	err := p.client.DoJSON(ctx, http.MethodPost, p.baseURL+"/embeddings",
		map[string]string{"Authorization": "Bearer " + p.apiKey}, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai embeddings: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	return resp.Data[0].Embedding, nil
}

func (p *OpenAIProvider) GetAvailableModels() []string {
	names := make([]string, 0, len(p.models))
	for name := range p.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *OpenAIProvider) GetModelInfo(model string) (ModelInfo, error) {
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

func (p *OpenAIProvider) CalculateCost(model string, promptTokens, completionTokens int64) (float64, error) {
	info, err := p.GetModelInfo(model)
	if err != nil {
		return 0, err
	}
	cost := float64(promptTokens)/1000*info.CostPer1KInput +
		float64(completionTokens)/1000*info.CostPer1KOutput
	return cost, nil
}

func (p *OpenAIProvider) apiModelName(model string) string {
	if m, ok := p.models[model]; ok && m.APIName != "" {
		return m.APIName
	}
	return model
}
