// Package docstore indexes document chunks and retrieves the ones most
// relevant to a query. Two backends are provided: an in-process bleve
// index and a client for an external Chroma server.
package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/llm"
)

// Chunk is one indexed fragment of a source document.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]string
	Score    float64
}

// Store is a searchable chunk index.
type Store interface {
	// Add indexes chunks. IDs must be unique within the store.
	Add(ctx context.Context, chunks []Chunk) error
	// Retrieve returns up to k chunks ranked by relevance to query.
	// An empty result with a nil error means nothing matched.
	Retrieve(ctx context.Context, query string, k int) ([]Chunk, error)
	// Count reports the number of indexed chunks.
	Count(ctx context.Context) (int, error)
}

// New picks the backend named by cfg. The chroma backend needs an
// embedding provider; bleve does not.
func New(cfg config.DocStoreConfig, provider llm.Provider, embedModel string) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "bleve", "":
		return NewBleveStore()
	case "chroma":
		if provider == nil {
			return nil, fmt.Errorf("docstore: chroma backend requires an embedding provider")
		}
		return NewChromaStore(cfg.Chroma, provider, embedModel)
	default:
		return nil, fmt.Errorf("docstore: unknown backend %q", cfg.Backend)
	}
}
