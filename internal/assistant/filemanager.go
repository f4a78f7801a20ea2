package assistant

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mosaibah/askdocs/internal/filemanager"
	"github.com/mosaibah/askdocs/internal/plan"
)

// quoted or bare filename with a known text extension, e.g. notes.txt
var filenamePattern = regexp.MustCompile(`[\w./-]+\.(txt|md|json|csv|log)`)

// FileWorker saves the incoming context to the workspace. The target
// filename is taken from the task description when one is present.
type FileWorker struct {
	manager *filemanager.Manager
	logger  *log.Logger
}

func NewFileWorker(manager *filemanager.Manager) *FileWorker {
	return &FileWorker{
		manager: manager,
		logger:  log.New(log.Writer(), "[FILES] ", log.LstdFlags),
	}
}

func (w *FileWorker) Name() plan.Assistant { return plan.FileManager }

func (w *FileWorker) PerformTask(ctx context.Context, task Task) (Result, error) {
	content := task.Context.Text()
	if content == "" {
		content = task.Description
	}

	name := filenamePattern.FindString(task.Description)

	// a read request with no prior context reads the named file
	if name != "" && task.Context.IsEmpty() && strings.Contains(strings.ToLower(task.Description), "read") {
		text, err := w.manager.Read(name)
		if err != nil {
			return Result{}, err
		}
		return Result{Raw: TextContext(text), Display: text}, nil
	}

	if name == "" {
		name = fmt.Sprintf("result-%s.txt", time.Now().Format("20060102-150405"))
	}

	path, err := w.manager.Save(name, content)
	if err != nil {
		return Result{}, err
	}
	w.logger.Printf("saved %d bytes to %s", len(content), path)
	text := fmt.Sprintf("Saved %d bytes to %s", len(content), name)
	return Result{Raw: TextContext(text), Display: text}, nil
}
