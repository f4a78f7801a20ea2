// Package assistant implements the specialized workers that plan steps
// dispatch to. Each worker performs exactly one external call per task
// and owns no state shared with the others.
package assistant

import (
	"context"
	"fmt"

	"github.com/mosaibah/askdocs/internal/plan"
)

// Task is the payload one plan step hands to a worker.
type Task struct {
	Description   string
	Context       ContextData
	OriginalQuery string
}

// Result is what a worker hands back. Raw feeds the next step's
// Context; Display is what the user sees for this step.
type Result struct {
	Raw     ContextData
	Display string
}

// Worker is the uniform contract across specialties.
type Worker interface {
	Name() plan.Assistant
	PerformTask(ctx context.Context, task Task) (Result, error)
}

// Registry is a static one-to-one mapping from assistant to worker.
// There is no fallback between workers.
type Registry struct {
	workers map[plan.Assistant]Worker
}

func NewRegistry(workers ...Worker) (*Registry, error) {
	r := &Registry{workers: make(map[plan.Assistant]Worker, len(workers))}
	for _, w := range workers {
		if _, dup := r.workers[w.Name()]; dup {
			return nil, fmt.Errorf("assistant: duplicate worker for %s", w.Name())
		}
		r.workers[w.Name()] = w
	}
	return r, nil
}

// Lookup returns the worker registered for a.
func (r *Registry) Lookup(a plan.Assistant) (Worker, error) {
	w, ok := r.workers[a]
	if !ok {
		return nil, fmt.Errorf("assistant: no worker registered for %s", a)
	}
	return w, nil
}
