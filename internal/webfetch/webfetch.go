// Package webfetch downloads a page and extracts its readable text.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const maxBodyBytes = 2 << 20

// Page is the readable portion of a fetched document.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher pulls pages over plain HTTP. Pages that need JS rendering
// come back mostly empty; that is acceptable for the enrichment path.
type Fetcher struct {
	client   *http.Client
	maxChars int
}

func NewFetcher(timeout time.Duration, maxChars int) *Fetcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 8000
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}, maxChars: maxChars}
}

func (f *Fetcher) Fetch(ctx context.Context, link string) (Page, error) {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Scheme == "" {
		return Page{}, fmt.Errorf("webfetch: invalid url %q", link)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", "askdocs/1.0")
	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("webfetch %s: %w", link, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("webfetch %s: %s", link, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("webfetch %s: %w", link, err)
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return Page{}, fmt.Errorf("webfetch %s: extract: %w", link, err)
	}
	text := clipRunes(strings.TrimSpace(article.TextContent), f.maxChars)
	return Page{URL: link, Title: strings.TrimSpace(article.Title), Text: text}, nil
}

// clipRunes bounds text to max runes so a multibyte character is
// never split.
func clipRunes(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
