// Package websearch provides the internet fallback tier for context
// selection.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/mosaibah/askdocs/config"
)

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher runs a web search and returns up to k results.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// New builds the searcher named by cfg.Provider.
func New(cfg config.WebSearchConfig) (Searcher, error) {
	switch strings.ToLower(cfg.Provider) {
	case "duckduckgo", "":
		return NewDuckDuckGo(cfg.MaxResults)
	case "serper":
		return NewSerper(cfg.SerperAPIKey), nil
	case "brave":
		return NewBrave(cfg.BraveAPIKey), nil
	default:
		return nil, fmt.Errorf("websearch: unknown provider %q", cfg.Provider)
	}
}
