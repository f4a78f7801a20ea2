package assistant

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/docstore"
	"github.com/mosaibah/askdocs/internal/plan"
)

// countPattern recognizes tasks that ask for the index size rather
// than its content.
var countPattern = regexp.MustCompile(`(?i)\b(how many|count|number of)\b.*\b(documents?|chunks?|entries|items)\b`)

// VectorStoreWorker answers tasks against the document index: either
// the document count or the most relevant chunks.
type VectorStoreWorker struct {
	store     docstore.Store
	maxChunks int
	logger    *log.Logger
}

func NewVectorStoreWorker(store docstore.Store, cfg config.RetrievalConfig) *VectorStoreWorker {
	maxChunks := cfg.MaxChunks
	if maxChunks <= 0 {
		maxChunks = 5
	}
	return &VectorStoreWorker{
		store:     store,
		maxChunks: maxChunks,
		logger:    log.New(log.Writer(), "[VECTORSTORE] ", log.LstdFlags),
	}
}

func (w *VectorStoreWorker) Name() plan.Assistant { return plan.VectorStoreAdmin }

// IsCountQuery reports whether description asks for the index size.
func IsCountQuery(description string) bool {
	return countPattern.MatchString(description)
}

func (w *VectorStoreWorker) PerformTask(ctx context.Context, task Task) (Result, error) {
	if IsCountQuery(task.Description) {
		n, err := w.store.Count(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("vector store count: %w", err)
		}
		text := fmt.Sprintf("There are %d documents indexed.", n)
		return Result{Raw: TextContext(text), Display: text}, nil
	}

	hits, err := w.store.Retrieve(ctx, task.Description, w.maxChunks)
	if err != nil {
		return Result{}, fmt.Errorf("vector store retrieve: %w", err)
	}
	if len(hits) == 0 {
		text := "No matching documents were found in the index."
		return Result{Raw: TextContext(text), Display: text}, nil
	}
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	w.logger.Printf("retrieved %d chunks for task: %s", len(hits), task.Description)
	return Result{
		Raw:     ListContext(texts),
		Display: fmt.Sprintf("Found %d relevant document chunks:\n%s", len(texts), strings.Join(texts, "\n---\n")),
	}, nil
}
