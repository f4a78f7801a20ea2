package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mosaibah/askdocs/internal/httpx"
)

// Brave queries the Brave Search API.
type Brave struct {
	apiKey string
	client *httpx.Client
}

func NewBrave(apiKey string) *Brave {
	return &Brave{apiKey: apiKey, client: httpx.NewClient(10*time.Second, 2, 300*time.Millisecond)}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *Brave) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("brave: api key not configured")
	}
	endpoint := "https://api.search.brave.com/res/v1/web/search?q=" + url.QueryEscape(query)
	if k > 0 {
		endpoint += fmt.Sprintf("&count=%d", k)
	}
	var resp braveResponse
	err := b.client.DoJSON(ctx, http.MethodGet, endpoint,
		map[string]string{"X-Subscription-Token": b.apiKey, "Accept": "application/json"}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	var out []Result
	for i, item := range resp.Web.Results {
		if k > 0 && i >= k {
			break
		}
		out = append(out, Result{Title: item.Title, URL: item.URL, Snippet: item.Description})
	}
	return out, nil
}
