package assistant

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mosaibah/askdocs/internal/plan"
	"github.com/mosaibah/askdocs/internal/sandbox"
)

// CodeWorker runs a snippet through the sandbox. The code comes from
// the incoming context when present, otherwise from the task
// description itself.
type CodeWorker struct {
	runner *sandbox.Runner
	logger *log.Logger
}

func NewCodeWorker(runner *sandbox.Runner) *CodeWorker {
	return &CodeWorker{
		runner: runner,
		logger: log.New(log.Writer(), "[CODE] ", log.LstdFlags),
	}
}

func (w *CodeWorker) Name() plan.Assistant { return plan.CodeInterpreter }

func (w *CodeWorker) PerformTask(ctx context.Context, task Task) (Result, error) {
	if w.runner == nil {
		return Result{}, errors.New("code interpreter is disabled")
	}
	code := task.Context.Text()
	if strings.TrimSpace(code) == "" {
		code = task.Description
	}
	res, err := w.runner.Run(ctx, code)
	if err != nil {
		return Result{}, err
	}
	w.logger.Printf("executed snippet, %d bytes of output", len(res.Output))
	output := strings.TrimSpace(res.Output)
	if output == "" {
		output = "The snippet produced no output."
	}
	return Result{Raw: TextContext(output), Display: output}, nil
}
