package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"
)

// BleveStore is an in-memory full-text index. Chunk bodies and metadata
// live in a side map keyed by chunk ID; bleve holds the searchable text.
type BleveStore struct {
	mu    sync.RWMutex
	index bleve.Index
	meta  map[string]Chunk
}

type bleveDoc struct {
	Text string `json:"text"`
}

func NewBleveStore() (*BleveStore, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("bleve index: %w", err)
	}
	return &BleveStore{index: index, meta: make(map[string]Chunk)}, nil
}

func (s *BleveStore) Add(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.index.NewBatch()
	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("bleve add: chunk without id")
		}
		if err := batch.Index(c.ID, bleveDoc{Text: c.Text}); err != nil {
			return fmt.Errorf("bleve add %s: %w", c.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("bleve batch: %w", err)
	}
	for _, c := range chunks {
		s.meta[c.ID] = c
	}
	return nil
}

func (s *BleveStore) Retrieve(ctx context.Context, query string, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	out := make([]Chunk, 0, len(res.Hits))
	for _, hit := range res.Hits {
		c, ok := s.meta[hit.ID]
		if !ok {
			continue
		}
		c.Score = hit.Score
		out = append(out, c)
	}
	return out, nil
}

func (s *BleveStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("bleve count: %w", err)
	}
	return int(n), nil
}
