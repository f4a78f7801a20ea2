package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/assistant"
	"github.com/mosaibah/askdocs/internal/docstore"
	"github.com/mosaibah/askdocs/internal/llm"
	"github.com/mosaibah/askdocs/internal/orchestrator"
	"github.com/mosaibah/askdocs/internal/plan"
	"github.com/mosaibah/askdocs/internal/retrieval"
	"github.com/mosaibah/askdocs/internal/server"
	"github.com/mosaibah/askdocs/internal/store"
	"github.com/mosaibah/askdocs/internal/websearch"
)

type stubProvider struct {
	response string
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	return s.response, nil
}

func (s *stubProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	return s.response, 1, 1, nil
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

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query string, k int) ([]websearch.Result, error) {
	return nil, nil
}

func testDeps(t *testing.T) server.Deps {
	t.Helper()
	docs, err := docstore.NewBleveStore()
	if err != nil {
		t.Fatalf("NewBleveStore: %v", err)
	}
	if err := docs.Add(context.Background(), []docstore.Chunk{
		{ID: "1", Text: "the product launched in march"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	provider := &stubProvider{response: "a generated answer"}
	generator := plan.NewGenerator(provider, "test-model", nil)
	pipeline := retrieval.NewPipeline(docs, stubSearcher{}, config.RetrievalConfig{}, nil)
	registry, err := assistant.NewRegistry(
		assistant.NewVectorStoreWorker(docs, config.RetrievalConfig{}),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	orch := orchestrator.New(generator, registry, pipeline, provider, "test-model", nil)

	return server.Deps{
		Config:       &config.Config{},
		Orchestrator: orch,
		Store:        docs,
		History:      store.NewMemoryHistory(),
	}
}

func TestHealthz(t *testing.T) {
	e := server.New(testDeps(t))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestQueryRequiresBody(t *testing.T) {
	e := server.New(testDeps(t))
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected error field, got %v", body)
	}
}

func TestQueryRejectsUnknownMode(t *testing.T) {
	e := server.New(testDeps(t))
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"q","mode":"bogus"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", rec.Code)
	}
}

func TestQueryDirectAnswers(t *testing.T) {
	e := server.New(testDeps(t))
	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"query":"product launch month","mode":"direct"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answer orchestrator.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if !strings.Contains(answer.Text, "a generated answer") {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
	if answer.Source != retrieval.SourceDocuments {
		t.Fatalf("expected documents source, got %s", answer.Source)
	}
	if answer.RequestID == "" {
		t.Fatal("expected a request id")
	}
}

func TestStatusUnknownRequest(t *testing.T) {
	e := server.New(testDeps(t))
	req := httptest.NewRequest(http.MethodGet, "/api/status/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatusAfterQuery(t *testing.T) {
	deps := testDeps(t)
	e := server.New(deps)
	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"query":"product launch month","mode":"direct"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var answer orchestrator.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status/"+answer.RequestID, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status orchestrator.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != orchestrator.StateCompleted {
		t.Fatalf("expected completed, got %s", status.State)
	}
}

func TestDocumentsCount(t *testing.T) {
	e := server.New(testDeps(t))
	req := httptest.NewRequest(http.MethodGet, "/api/documents/count", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["count"] != 1 {
		t.Fatalf("expected count 1, got %d", body["count"])
	}
}

func TestHistoryEndpoint(t *testing.T) {
	deps := testDeps(t)
	e := server.New(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"query":"product launch month","mode":"direct","session":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query failed: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history?session=s1", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var msgs []store.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
}
