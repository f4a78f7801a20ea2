package assistant

import (
	"context"
	"fmt"
	"log"

	"github.com/mosaibah/askdocs/internal/llm"
	"github.com/mosaibah/askdocs/internal/plan"
	"github.com/mosaibah/askdocs/internal/prompt"
	"github.com/mosaibah/askdocs/internal/retrieval"
	"github.com/mosaibah/askdocs/internal/telemetry"
)

// LanguageModelWorker generates text. A list-shaped incoming context
// becomes external context, which pins the retrieval pipeline to its
// external tier; any other context shape lets the full fallback chain
// run against the original query.
type LanguageModelWorker struct {
	provider llm.Provider
	model    string
	pipeline *retrieval.Pipeline
	costs    *telemetry.CostTracker
	logger   *log.Logger
}

func NewLanguageModelWorker(provider llm.Provider, model string, pipeline *retrieval.Pipeline, costs *telemetry.CostTracker) *LanguageModelWorker {
	return &LanguageModelWorker{
		provider: provider,
		model:    model,
		pipeline: pipeline,
		costs:    costs,
		logger:   log.New(log.Writer(), "[LLMWORKER] ", log.LstdFlags),
	}
}

func (w *LanguageModelWorker) Name() plan.Assistant { return plan.LanguageModelAdmin }

func (w *LanguageModelWorker) PerformTask(ctx context.Context, task Task) (Result, error) {
	query := task.OriginalQuery
	if query == "" {
		query = task.Description
	}

	var external []string
	if task.Context.IsList() {
		external = task.Context.List()
	}
	bundle := w.pipeline.SelectContext(ctx, query, external)

	rendered := prompt.Format(query, bundle, task.Description)
	text, promptTokens, completionTokens, err := w.provider.GenerateWithTokens(ctx, rendered, w.model, nil)
	if err != nil {
		return Result{}, fmt.Errorf("generation: %w", err)
	}
	if w.costs != nil {
		cost, cerr := w.provider.CalculateCost(w.model, promptTokens, completionTokens)
		if cerr != nil {
			cost = 0
		}
		w.costs.Add(w.model, promptTokens, completionTokens, cost)
	}
	w.logger.Printf("generated %d chars (source: %s)", len(text), bundle.Source)
	return Result{
		Raw:     TextContext(text),
		Display: text + "\n\n" + bundle.Source.Provenance(),
	}, nil
}
