package docstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/httpx"
	"github.com/mosaibah/askdocs/internal/llm"
)

// ChromaStore talks to a Chroma server over its REST API. Queries embed
// the text through the configured provider before searching.
type ChromaStore struct {
	baseURL      string
	collectionID string
	client       *httpx.Client
	provider     llm.Provider
	embedModel   string
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewChromaStore(cfg config.ChromaConfig, provider llm.Provider, embedModel string) (*ChromaStore, error) {
	baseURL := strings.TrimRight(cfg.URL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "documents_collection"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	s := &ChromaStore{
		baseURL:    baseURL,
		client:     httpx.NewClient(timeout, 2, 300*time.Millisecond),
		provider:   provider,
		embedModel: embedModel,
	}

	var col chromaCollection
	err := s.client.DoJSON(context.Background(), http.MethodPost, baseURL+"/api/v1/collections", nil,
		map[string]any{"name": collection, "get_or_create": true}, &col)
	if err != nil {
		return nil, fmt.Errorf("chroma collection %q: %w", collection, err)
	}
	s.collectionID = col.ID
	return s, nil
}

func (s *ChromaStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(chunks))
	docs := make([]string, 0, len(chunks))
	metas := make([]map[string]string, 0, len(chunks))
	embeddings := make([][]float64, 0, len(chunks))
	for _, c := range chunks {
		emb, err := s.provider.Embed(ctx, c.Text, s.embedModel)
		if err != nil {
			return fmt.Errorf("chroma add: embed %s: %w", c.ID, err)
		}
		ids = append(ids, c.ID)
		docs = append(docs, c.Text)
		metas = append(metas, c.Metadata)
		embeddings = append(embeddings, emb)
	}
	url := fmt.Sprintf("%s/api/v1/collections/%s/add", s.baseURL, s.collectionID)
	body := map[string]any{
		"ids":        ids,
		"documents":  docs,
		"metadatas":  metas,
		"embeddings": embeddings,
	}
	if err := s.client.DoJSON(ctx, http.MethodPost, url, nil, body, nil); err != nil {
		return fmt.Errorf("chroma add: %w", err)
	}
	return nil
}

type chromaQueryResponse struct {
	IDs       [][]string            `json:"ids"`
	Documents [][]string            `json:"documents"`
	Metadatas [][]map[string]string `json:"metadatas"`
	Distances [][]float64           `json:"distances"`
}

func (s *ChromaStore) Retrieve(ctx context.Context, query string, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	emb, err := s.provider.Embed(ctx, query, s.embedModel)
	if err != nil {
		return nil, fmt.Errorf("chroma query: embed: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/query", s.baseURL, s.collectionID)
	body := map[string]any{
		"query_embeddings": [][]float64{emb},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var resp chromaQueryResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, url, nil, body, &resp); err != nil {
		return nil, fmt.Errorf("chroma query: %w", err)
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	out := make([]Chunk, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		c := Chunk{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			c.Text = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			c.Metadata = resp.Metadatas[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			// chroma reports distance; invert so larger is better
			c.Score = 1 / (1 + resp.Distances[0][i])
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/api/v1/collections/%s/count", s.baseURL, s.collectionID)
	var n int
	if err := s.client.DoJSON(ctx, http.MethodGet, url, nil, nil, &n); err != nil {
		return 0, fmt.Errorf("chroma count: %w", err)
	}
	return n, nil
}
