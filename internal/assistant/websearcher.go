package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mosaibah/askdocs/internal/plan"
	"github.com/mosaibah/askdocs/internal/webfetch"
	"github.com/mosaibah/askdocs/internal/websearch"
)

// WebSearchWorker runs the task description as a web query. Incoming
// context is informational only and is ignored. When a fetcher is set,
// the top result's page text is pulled in to enrich the snippets.
type WebSearchWorker struct {
	searcher   websearch.Searcher
	fetcher    *webfetch.Fetcher
	maxResults int
	logger     *log.Logger
}

func NewWebSearchWorker(searcher websearch.Searcher, maxResults int) *WebSearchWorker {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &WebSearchWorker{
		searcher:   searcher,
		maxResults: maxResults,
		logger:     log.New(log.Writer(), "[WEBSEARCH] ", log.LstdFlags),
	}
}

// WithFetcher enables page enrichment.
func (w *WebSearchWorker) WithFetcher(fetcher *webfetch.Fetcher) *WebSearchWorker {
	w.fetcher = fetcher
	return w
}

func (w *WebSearchWorker) Name() plan.Assistant { return plan.WebSearcher }

func (w *WebSearchWorker) PerformTask(ctx context.Context, task Task) (Result, error) {
	results, err := w.searcher.Search(ctx, task.Description, w.maxResults)
	if err != nil {
		return Result{}, fmt.Errorf("web search: %w", err)
	}
	if len(results) == 0 {
		text := "The web search returned no results."
		return Result{Raw: TextContext(text), Display: text}, nil
	}

	if w.fetcher != nil && results[0].URL != "" {
		page, ferr := w.fetcher.Fetch(ctx, results[0].URL)
		if ferr != nil {
			w.logger.Printf("page fetch skipped: %v", ferr)
		} else if page.Text != "" {
			results[0].Snippet = page.Text
		}
	}

	texts := make([]string, 0, len(results))
	display := make([]string, 0, len(results))
	for _, r := range results {
		snippet := r.Snippet
		if snippet == "" {
			snippet = r.Title
		}
		texts = append(texts, snippet)
		line := snippet
		if r.URL != "" {
			line += " [" + r.URL + "]"
		}
		display = append(display, "- "+line)
	}
	w.logger.Printf("%d results for query: %s", len(results), task.Description)
	return Result{
		Raw:     ListContext(texts),
		Display: "Search results:\n" + strings.Join(display, "\n"),
	}, nil
}
