package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// DuckDuckGo searches without an API key. The underlying tool returns
// hits as "Title: ...\nDescription: ...\nURL: ..." blocks separated by
// blank lines.
type DuckDuckGo struct {
	tool *duckduckgo.Tool
	max  int
}

func NewDuckDuckGo(maxResults int) (*DuckDuckGo, error) {
	if maxResults <= 0 {
		maxResults = 3
	}
	tool, err := duckduckgo.New(maxResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	return &DuckDuckGo{tool: tool, max: maxResults}, nil
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, k int) ([]Result, error) {
	raw, err := d.tool.Call(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	results := parseDuckDuckGo(raw)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func parseDuckDuckGo(raw string) []Result {
	var out []Result
	for _, block := range strings.Split(raw, "\n\n") {
		var r Result
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "Title:"):
				r.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
			case strings.HasPrefix(line, "URL:"):
				r.URL = strings.TrimSpace(strings.TrimPrefix(line, "URL:"))
			case strings.HasPrefix(line, "Description:"):
				r.Snippet = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
			}
		}
		if r.Title == "" && r.Snippet == "" {
			// tool output without labels, keep the block as a snippet
			text := strings.TrimSpace(block)
			if text == "" {
				continue
			}
			r.Snippet = text
		}
		out = append(out, r)
	}
	return out
}
