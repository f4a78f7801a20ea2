package websearch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mosaibah/askdocs/internal/httpx"
)

// Serper queries the serper.dev Google wrapper.
type Serper struct {
	apiKey string
	client *httpx.Client
}

func NewSerper(apiKey string) *Serper {
	return &Serper{apiKey: apiKey, client: httpx.NewClient(10*time.Second, 2, 300*time.Millisecond)}
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s *Serper) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("serper: api key not configured")
	}
	payload := map[string]any{"q": query, "num": k}
	var resp serperResponse
	err := s.client.DoJSON(ctx, http.MethodPost, "https://google.serper.dev/search",
		map[string]string{"X-API-KEY": s.apiKey}, payload, &resp)
	if err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	var out []Result
	for i, item := range resp.Organic {
		if k > 0 && i >= k {
			break
		}
		out = append(out, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return out, nil
}
