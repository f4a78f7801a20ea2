package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/assistant"
	"github.com/mosaibah/askdocs/internal/docstore"
	"github.com/mosaibah/askdocs/internal/llm"
	"github.com/mosaibah/askdocs/internal/plan"
	"github.com/mosaibah/askdocs/internal/retrieval"
	"github.com/mosaibah/askdocs/internal/websearch"
)

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	text, _, _, err := s.GenerateWithTokens(ctx, prompt, model, options)
	return text, err
}

func (s *stubProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	s.calls++
	if s.err != nil {
		return "", 0, 0, s.err
	}
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

type stubStore struct {
	chunks []docstore.Chunk
	count  int
}

func (s *stubStore) Add(ctx context.Context, chunks []docstore.Chunk) error { return nil }

func (s *stubStore) Retrieve(ctx context.Context, query string, k int) ([]docstore.Chunk, error) {
	return s.chunks, nil
}

func (s *stubStore) Count(ctx context.Context) (int, error) { return s.count, nil }

type stubSearcher struct {
	results []websearch.Result
}

func (s *stubSearcher) Search(ctx context.Context, query string, k int) ([]websearch.Result, error) {
	return s.results, nil
}

type stubWorker struct {
	name     plan.Assistant
	calls    int
	contexts []assistant.ContextData
	result   assistant.Result
	err      error
}

func (w *stubWorker) Name() plan.Assistant { return w.name }

func (w *stubWorker) PerformTask(ctx context.Context, task assistant.Task) (assistant.Result, error) {
	w.calls++
	w.contexts = append(w.contexts, task.Context)
	if w.err != nil {
		return assistant.Result{}, w.err
	}
	return w.result, nil
}

func newTestOrchestrator(t *testing.T, planText string, workers ...assistant.Worker) (*Orchestrator, *stubProvider) {
	t.Helper()
	provider := &stubProvider{response: planText}
	generator := plan.NewGenerator(provider, "test-model", nil)
	registry, err := assistant.NewRegistry(workers...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	pipeline := retrieval.NewPipeline(&stubStore{}, &stubSearcher{}, config.RetrievalConfig{}, nil)
	return New(generator, registry, pipeline, provider, "test-model", nil), provider
}

func TestFailedStepHaltsPlan(t *testing.T) {
	planText := "1. find X -> Internet Searcher\n" +
		"2. summarize X -> Gemini API Admin\n" +
		"3. save summary -> File Manager\n"
	searcher := &stubWorker{name: plan.WebSearcher, result: assistant.Result{Raw: assistant.ListContext([]string{"hit"}), Display: "hit"}}
	summarizer := &stubWorker{name: plan.LanguageModelAdmin, err: errors.New("backend exploded")}
	files := &stubWorker{name: plan.FileManager}

	orch, _ := newTestOrchestrator(t, planText, searcher, summarizer, files)
	answer, err := orch.Respond(context.Background(), "summarize X and save it", ModePlan)
	if err == nil {
		t.Fatal("expected plan failure")
	}
	if !strings.Contains(err.Error(), "step 1") {
		t.Fatalf("error must name the failing step index: %v", err)
	}
	if searcher.calls != 1 || summarizer.calls != 1 {
		t.Fatalf("expected exactly one call each before the failure, got %d/%d", searcher.calls, summarizer.calls)
	}
	if files.calls != 0 {
		t.Fatalf("worker after the failure must never run, got %d calls", files.calls)
	}
	status, ok := orch.GetStatus(answer.RequestID)
	if !ok || status.State != StateFailed {
		t.Fatalf("expected failed status, got %+v", status)
	}
}

func TestContextThreadingPassesExactlyPreviousResult(t *testing.T) {
	planText := "1. search -> Internet Searcher\n" +
		"2. summarize -> Gemini API Admin\n" +
		"3. save -> File Manager\n"
	firstRaw := assistant.ListContext([]string{"result one", "result two"})
	secondRaw := assistant.TextContext("a summary")
	searcher := &stubWorker{name: plan.WebSearcher, result: assistant.Result{Raw: firstRaw, Display: "results"}}
	summarizer := &stubWorker{name: plan.LanguageModelAdmin, result: assistant.Result{Raw: secondRaw, Display: "a summary"}}
	files := &stubWorker{name: plan.FileManager, result: assistant.Result{Raw: assistant.TextContext("saved"), Display: "saved"}}

	orch, _ := newTestOrchestrator(t, planText, searcher, summarizer, files)
	if _, err := orch.Respond(context.Background(), "q", ModePlan); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if !searcher.contexts[0].IsEmpty() {
		t.Fatal("first step must start with empty context")
	}
	if got := summarizer.contexts[0].Text(); got != firstRaw.Text() {
		t.Fatalf("step 2 context must equal step 1 raw result, got %q", got)
	}
	if !summarizer.contexts[0].IsList() {
		t.Fatal("list shape must survive threading")
	}
	// step 3 sees only step 2's result, not an accumulation
	if got := files.contexts[0].Text(); got != "a summary" {
		t.Fatalf("step 3 context must equal step 2 raw result, got %q", got)
	}
	if files.contexts[0].IsList() {
		t.Fatal("step 3 context must not merge earlier list data")
	}
}

func TestParseErrorFailsBeforeAnyDispatch(t *testing.T) {
	planText := "1. search the web -> Internet Searcher\n" +
		"2. summarize -> The Librarian\n"
	searcher := &stubWorker{name: plan.WebSearcher}

	orch, _ := newTestOrchestrator(t, planText, searcher)
	answer, err := orch.Respond(context.Background(), "q", ModePlan)
	if err == nil {
		t.Fatal("expected planning failure")
	}
	var pe *plan.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError in chain, got %v", err)
	}
	if pe.Line != 2 {
		t.Fatalf("expected line 2, got %d", pe.Line)
	}
	if searcher.calls != 0 {
		t.Fatalf("no step may dispatch after a parse error, got %d calls", searcher.calls)
	}
	status, ok := orch.GetStatus(answer.RequestID)
	if !ok || status.State != StateFailed {
		t.Fatalf("expected failed status, got %+v", status)
	}
}

func TestCompletedPlanReportsFullProgress(t *testing.T) {
	planText := "1. search -> Internet Searcher\n2. answer -> Gemini API Admin\n"
	searcher := &stubWorker{name: plan.WebSearcher, result: assistant.Result{Raw: assistant.ListContext([]string{"x"}), Display: "x"}}
	answerer := &stubWorker{name: plan.LanguageModelAdmin, result: assistant.Result{Raw: assistant.TextContext("final"), Display: "final answer"}}

	orch, _ := newTestOrchestrator(t, planText, searcher, answerer)
	answer, err := orch.Respond(context.Background(), "q", ModePlan)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if answer.Text != "final answer" {
		t.Fatalf("final answer must be the last step's display, got %q", answer.Text)
	}
	if len(answer.Steps) != 2 {
		t.Fatalf("expected 2 step outcomes, got %d", len(answer.Steps))
	}
	status, ok := orch.GetStatus(answer.RequestID)
	if !ok || status.State != StateCompleted {
		t.Fatalf("expected completed status, got %+v", status)
	}
	if status.Progress != 1 {
		t.Fatalf("expected progress 1, got %f", status.Progress)
	}
}

func TestCountQueryRoutesToVectorStore(t *testing.T) {
	provider := &stubProvider{response: "unused"}
	generator := plan.NewGenerator(provider, "test-model", nil)
	store := &stubStore{count: 7}
	registry, err := assistant.NewRegistry(assistant.NewVectorStoreWorker(store, config.RetrievalConfig{}))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	pipeline := retrieval.NewPipeline(store, &stubSearcher{}, config.RetrievalConfig{}, nil)
	orch := New(generator, registry, pipeline, provider, "test-model", nil)

	answer, err := orch.Respond(context.Background(), "How many documents are indexed?", ModeAuto)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(answer.Text, "7") {
		t.Fatalf("answer must contain the literal count, got %q", answer.Text)
	}
	if provider.calls != 0 {
		t.Fatalf("count path must not call the model, got %d calls", provider.calls)
	}
}

func TestDirectPathAnnotatesInternetSource(t *testing.T) {
	provider := &stubProvider{response: "an answer"}
	generator := plan.NewGenerator(provider, "test-model", nil)
	registry, err := assistant.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	searcher := &stubSearcher{results: []websearch.Result{{Snippet: "web fact"}, {Snippet: "another"}}}
	pipeline := retrieval.NewPipeline(&stubStore{}, searcher, config.RetrievalConfig{}, nil)
	orch := New(generator, registry, pipeline, provider, "test-model", nil)

	answer, err := orch.Respond(context.Background(), "what is new?", ModeDirect)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if answer.Source != retrieval.SourceInternet {
		t.Fatalf("expected internet source, got %s", answer.Source)
	}
	if !strings.Contains(answer.Text, "(Source: Internet Search)") {
		t.Fatalf("answer must carry provenance, got %q", answer.Text)
	}
}

func TestAutoModeRoutesMultiStepCuesToPlanner(t *testing.T) {
	planText := "1. search solar news -> Internet Searcher\n2. save it -> File Manager\n"
	searcher := &stubWorker{name: plan.WebSearcher, result: assistant.Result{Raw: assistant.ListContext([]string{"x"}), Display: "x"}}
	files := &stubWorker{name: plan.FileManager, result: assistant.Result{Raw: assistant.TextContext("saved"), Display: "saved"}}

	orch, _ := newTestOrchestrator(t, planText, searcher, files)
	answer, err := orch.Respond(context.Background(), "find solar news and then save it to a file", ModeAuto)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(answer.Steps) != 2 {
		t.Fatalf("expected planned execution, got %d steps", len(answer.Steps))
	}
}

func TestGenerationFailureIsNotSwallowed(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("model unavailable")}
	generator := plan.NewGenerator(provider, "test-model", nil)
	registry, _ := assistant.NewRegistry()
	pipeline := retrieval.NewPipeline(&stubStore{}, &stubSearcher{}, config.RetrievalConfig{}, nil)
	orch := New(generator, registry, pipeline, provider, "test-model", nil)

	answer, err := orch.Respond(context.Background(), "anything", ModeDirect)
	if err == nil {
		t.Fatalf("backend failure must propagate, got answer %q", answer.Text)
	}
}
