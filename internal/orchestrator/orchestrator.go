// Package orchestrator turns one user query into an answer, either by
// a single retrieval-augmented generation call or by executing a
// multi-step plan across the specialized workers.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mosaibah/askdocs/internal/assistant"
	"github.com/mosaibah/askdocs/internal/llm"
	"github.com/mosaibah/askdocs/internal/plan"
	"github.com/mosaibah/askdocs/internal/prompt"
	"github.com/mosaibah/askdocs/internal/retrieval"
	"github.com/mosaibah/askdocs/internal/telemetry"
)

// State is the request lifecycle phase.
type State string

const (
	StatePlanning  State = "planning"
	StateExecuting State = "executing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Mode selects how a query is handled.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeDirect Mode = "direct"
	ModePlan   Mode = "plan"
)

// Status is a snapshot of one request's progress.
type Status struct {
	RequestID   string    `json:"request_id"`
	State       State     `json:"state"`
	CurrentStep int       `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
	Progress    float64   `json:"progress"`
	Message     string    `json:"message"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StepOutcome is the user-visible record of one executed step.
type StepOutcome struct {
	Index     int            `json:"index"`
	Assistant plan.Assistant `json:"assistant"`
	Task      string         `json:"task"`
	Display   string         `json:"display"`
}

// Answer is the terminal result of one request.
type Answer struct {
	RequestID string               `json:"request_id"`
	Text      string               `json:"text"`
	Source    retrieval.SourceType `json:"source,omitempty"`
	PlanText  string               `json:"plan,omitempty"`
	Steps     []StepOutcome        `json:"steps,omitempty"`
}

// Orchestrator coordinates planning, retrieval and the workers. Each
// request owns its own execution state; only the status map is shared,
// behind a lock.
type Orchestrator struct {
	generator *plan.Generator
	registry  *assistant.Registry
	pipeline  *retrieval.Pipeline
	provider  llm.Provider
	model     string
	metrics   *telemetry.Metrics
	logger    *log.Logger

	mu       sync.RWMutex
	statuses map[string]Status
}

func New(generator *plan.Generator, registry *assistant.Registry, pipeline *retrieval.Pipeline, provider llm.Provider, model string, metrics *telemetry.Metrics) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		registry:  registry,
		pipeline:  pipeline,
		provider:  provider,
		model:     model,
		metrics:   metrics,
		logger:    log.New(log.Writer(), "[ORCH] ", log.LstdFlags),
		statuses:  make(map[string]Status),
	}
}

// Respond answers a query. ModeDirect always takes the single-shot
// path, ModePlan always plans, ModeAuto routes on the query shape.
func (o *Orchestrator) Respond(ctx context.Context, query string, mode Mode) (Answer, error) {
	requestID := uuid.NewString()
	start := time.Now()

	answer, err := o.respond(ctx, requestID, query, mode)
	if o.metrics != nil {
		o.metrics.RecordRequest(telemetry.RequestEvent{
			RequestID: requestID,
			Query:     query,
			Steps:     len(answer.Steps),
			Success:   err == nil,
			Duration:  time.Since(start),
			Timestamp: start,
		})
	}
	answer.RequestID = requestID
	return answer, err
}

func (o *Orchestrator) respond(ctx context.Context, requestID, query string, mode Mode) (Answer, error) {
	switch mode {
	case ModePlan:
		return o.executePlan(ctx, requestID, query)
	case ModeDirect:
		return o.respondDirect(ctx, requestID, query)
	default:
		if assistant.IsCountQuery(query) || !wantsPlan(query) {
			return o.respondDirect(ctx, requestID, query)
		}
		return o.executePlan(ctx, requestID, query)
	}
}

// multi-step cues in ModeAuto
var planCues = []string{" then ", " and then ", " after that ", "step by step", " save ", " write a file", " run "}

func wantsPlan(query string) bool {
	q := " " + strings.ToLower(query) + " "
	for _, cue := range planCues {
		if strings.Contains(q, cue) {
			return true
		}
	}
	return false
}

// respondDirect is the single-shot path: count queries go straight to
// the vector store worker, everything else runs the retrieval fallback
// chain into one generation call.
func (o *Orchestrator) respondDirect(ctx context.Context, requestID, query string) (Answer, error) {
	o.updateStatus(requestID, StateExecuting, 0, 1, "answering")

	if assistant.IsCountQuery(query) {
		worker, err := o.registry.Lookup(plan.VectorStoreAdmin)
		if err == nil {
			res, werr := worker.PerformTask(ctx, assistant.Task{Description: query, OriginalQuery: query})
			if werr != nil {
				o.updateStatus(requestID, StateFailed, 0, 1, werr.Error())
				return Answer{}, werr
			}
			o.updateStatus(requestID, StateCompleted, 1, 1, "done")
			return Answer{Text: res.Display}, nil
		}
	}

	bundle := o.pipeline.SelectContext(ctx, query, nil)
	rendered := prompt.Format(query, bundle, "")
	text, err := o.provider.Generate(ctx, rendered, o.model, nil)
	if err != nil {
		o.updateStatus(requestID, StateFailed, 0, 1, err.Error())
		return Answer{}, fmt.Errorf("generation: %w", err)
	}
	o.updateStatus(requestID, StateCompleted, 1, 1, "done")
	return Answer{
		Text:   text + "\n\n" + bundle.Source.Provenance(),
		Source: bundle.Source,
	}, nil
}

// executePlan runs the full state machine: Planning, then Executing
// step 0..n-1, then Completed or Failed. The context value threaded
// between steps is exactly the previous step's raw result; a failed
// step halts the plan with no retry and discards earlier partial
// results from the user's perspective.
func (o *Orchestrator) executePlan(ctx context.Context, requestID, query string) (Answer, error) {
	o.updateStatus(requestID, StatePlanning, 0, 0, "generating plan")

	planText, err := o.generator.GeneratePlan(ctx, query)
	if err != nil {
		o.updateStatus(requestID, StateFailed, 0, 0, err.Error())
		return Answer{}, fmt.Errorf("planning failed: %w", err)
	}
	parsed, err := plan.Parse(planText)
	if err != nil {
		o.updateStatus(requestID, StateFailed, 0, 0, err.Error())
		return Answer{PlanText: planText}, fmt.Errorf("planning failed: %w", err)
	}

	n := len(parsed.Steps)
	o.logger.Printf("request %s: executing %d step plan", requestID, n)

	current := assistant.NoContext()
	steps := make([]StepOutcome, 0, n)
	for i, step := range parsed.Steps {
		o.updateStatus(requestID, StateExecuting, i, n,
			fmt.Sprintf("step %d/%d: %s", i+1, n, step.TaskDescription))

		worker, err := o.registry.Lookup(step.Assistant)
		if err != nil {
			o.updateStatus(requestID, StateFailed, i, n, err.Error())
			return Answer{PlanText: planText}, fmt.Errorf("step %d (%s): %w", i, step.Assistant, err)
		}

		stepStart := time.Now()
		res, err := worker.PerformTask(ctx, assistant.Task{
			Description:   step.TaskDescription,
			Context:       current,
			OriginalQuery: query,
		})
		if o.metrics != nil {
			o.metrics.RecordStep(telemetry.StepEvent{
				RequestID: requestID,
				Index:     i,
				Assistant: string(step.Assistant),
				Success:   err == nil,
				Duration:  time.Since(stepStart),
			})
		}
		if err != nil {
			o.updateStatus(requestID, StateFailed, i, n, err.Error())
			o.logger.Printf("request %s: step %d (%s) failed: %v", requestID, i, step.Assistant, err)
			return Answer{PlanText: planText}, fmt.Errorf("step %d (%s) failed: %w", i, step.Assistant.DisplayName(), err)
		}

		current = res.Raw
		steps = append(steps, StepOutcome{
			Index:     i,
			Assistant: step.Assistant,
			Task:      step.TaskDescription,
			Display:   res.Display,
		})
	}

	o.updateStatus(requestID, StateCompleted, n, n, "done")
	final := ""
	if len(steps) > 0 {
		final = steps[len(steps)-1].Display
	}
	return Answer{Text: final, PlanText: planText, Steps: steps}, nil
}

// GeneratePlan exposes the planning stage on its own, without
// executing anything.
func (o *Orchestrator) GeneratePlan(ctx context.Context, query string) (string, *plan.Plan, error) {
	text, err := o.generator.GeneratePlan(ctx, query)
	if err != nil {
		return "", nil, err
	}
	parsed, err := plan.Parse(text)
	if err != nil {
		return text, nil, err
	}
	return text, parsed, nil
}

// GetStatus returns the latest snapshot for a request.
func (o *Orchestrator) GetStatus(requestID string) (Status, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.statuses[requestID]
	return s, ok
}

func (o *Orchestrator) updateStatus(requestID string, state State, step, total int, message string) {
	var progress float64
	if total > 0 {
		progress = float64(step) / float64(total)
	}
	if state == StateCompleted {
		progress = 1
	}
	o.mu.Lock()
	o.statuses[requestID] = Status{
		RequestID:   requestID,
		State:       state,
		CurrentStep: step,
		TotalSteps:  total,
		Progress:    progress,
		Message:     message,
		UpdatedAt:   time.Now(),
	}
	o.mu.Unlock()
}
