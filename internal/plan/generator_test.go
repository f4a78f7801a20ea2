package plan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mosaibah/askdocs/internal/llm"
)

type stubProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	text, _, _, err := s.GenerateWithTokens(ctx, prompt, model, options)
	return text, err
}

func (s *stubProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", 0, 0, s.err
	}
	return s.response, 10, 5, nil
}

func (s *stubProvider) Embed(ctx context.Context, text string, model string) ([]float64, error) {
	return nil, errors.New("not implemented")
}

func (s *stubProvider) GetAvailableModels() []string { return nil }

func (s *stubProvider) GetModelInfo(model string) (llm.ModelInfo, error) {
	return llm.ModelInfo{}, errors.New("unknown model")
}

func (s *stubProvider) CalculateCost(model string, promptTokens, completionTokens int64) (float64, error) {
	return 0, nil
}

func TestGeneratePlanReturnsModelText(t *testing.T) {
	stub := &stubProvider{response: "1. search -> Internet Searcher"}
	g := NewGenerator(stub, "test-model", nil)

	text, err := g.GeneratePlan(context.Background(), "find recent news")
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if text != stub.response {
		t.Fatalf("expected model text back, got %q", text)
	}
}

func TestGeneratePlanPromptListsAllAssistants(t *testing.T) {
	stub := &stubProvider{response: "1. x -> File Manager"}
	g := NewGenerator(stub, "test-model", nil)

	if _, err := g.GeneratePlan(context.Background(), "do something"); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(stub.prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(stub.prompts))
	}
	for _, a := range All() {
		if !strings.Contains(stub.prompts[0], a.DisplayName()) {
			t.Fatalf("prompt missing assistant %q", a.DisplayName())
		}
	}
	if !strings.Contains(stub.prompts[0], "do something") {
		t.Fatal("prompt missing the query")
	}
}

func TestGeneratePlanPropagatesBackendFailure(t *testing.T) {
	stub := &stubProvider{err: errors.New("backend down")}
	g := NewGenerator(stub, "test-model", nil)

	if _, err := g.GeneratePlan(context.Background(), "q"); err == nil {
		t.Fatal("expected error from failing backend")
	}
}

func TestGeneratePlanRejectsEmptyModelOutput(t *testing.T) {
	stub := &stubProvider{response: "   \n"}
	g := NewGenerator(stub, "test-model", nil)

	if _, err := g.GeneratePlan(context.Background(), "q"); err == nil {
		t.Fatal("expected error for empty plan text")
	}
}
