// Package retrieval selects the contextual evidence that feeds a
// generation call. Tiers are tried lazily in a fixed order: caller
// supplied context, then the document index, then a web search, then
// nothing.
package retrieval

import (
	"context"
	"log"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/docstore"
	"github.com/mosaibah/askdocs/internal/telemetry"
	"github.com/mosaibah/askdocs/internal/websearch"
)

// SourceType tags where a context bundle came from.
type SourceType string

const (
	SourceExternal  SourceType = "external"
	SourceDocuments SourceType = "documents"
	SourceInternet  SourceType = "internet"
	SourceNone      SourceType = "none"
)

// Provenance is the human-readable suffix appended to answers built on
// this source.
func (s SourceType) Provenance() string {
	switch s {
	case SourceExternal:
		return "(Source: Provided Context)"
	case SourceDocuments:
		return "(Source: Internal Documents)"
	case SourceInternet:
		return "(Source: Internet Search)"
	default:
		return "(Source: General Knowledge - No specific documents found)"
	}
}

// Chunk is one piece of context evidence.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// ContextBundle is the pipeline's output: ordered chunks plus the tier
// that produced them.
type ContextBundle struct {
	Chunks []Chunk
	Source SourceType
}

// Empty reports whether the bundle carries no evidence.
func (b ContextBundle) Empty() bool { return len(b.Chunks) == 0 }

// Pipeline runs the tier fallback chain.
type Pipeline struct {
	store    docstore.Store
	searcher websearch.Searcher
	cfg      config.RetrievalConfig
	metrics  *telemetry.Metrics
	logger   *log.Logger
}

func NewPipeline(store docstore.Store, searcher websearch.Searcher, cfg config.RetrievalConfig, metrics *telemetry.Metrics) *Pipeline {
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 5
	}
	if cfg.MaxWebResults <= 0 {
		cfg.MaxWebResults = 3
	}
	return &Pipeline{
		store:    store,
		searcher: searcher,
		cfg:      cfg,
		metrics:  metrics,
		logger:   log.New(log.Writer(), "[RETRIEVAL] ", log.LstdFlags),
	}
}

// SelectContext resolves the context bundle for query. A non-empty
// external slice wins outright and no store or search call is made.
// Store and search failures degrade to the next tier rather than
// aborting, ending at the none tier.
func (p *Pipeline) SelectContext(ctx context.Context, query string, external []string) ContextBundle {
	if len(external) > 0 {
		chunks := make([]Chunk, 0, len(external))
		for _, text := range external {
			chunks = append(chunks, Chunk{Text: text})
		}
		return p.done(ContextBundle{Chunks: chunks, Source: SourceExternal})
	}

	if p.store != nil {
		hits, err := p.store.Retrieve(ctx, query, p.cfg.MaxChunks)
		if err != nil {
			p.logger.Printf("document retrieval failed, falling back to web search: %v", err)
		} else if len(hits) > 0 {
			chunks := make([]Chunk, 0, len(hits))
			for _, h := range hits {
				chunks = append(chunks, Chunk{Text: p.clip(h.Text), Metadata: h.Metadata})
			}
			return p.done(ContextBundle{Chunks: chunks, Source: SourceDocuments})
		}
	}

	if p.searcher != nil {
		results, err := p.searcher.Search(ctx, query, p.cfg.MaxWebResults)
		if err != nil {
			p.logger.Printf("web search failed, answering without context: %v", err)
		} else if len(results) > 0 {
			chunks := make([]Chunk, 0, len(results))
			for _, r := range results {
				meta := map[string]string{}
				if r.URL != "" {
					meta["url"] = r.URL
				}
				if r.Title != "" {
					meta["title"] = r.Title
				}
				chunks = append(chunks, Chunk{Text: r.Snippet, Metadata: meta})
			}
			return p.done(ContextBundle{Chunks: chunks, Source: SourceInternet})
		}
	}

	return p.done(ContextBundle{Source: SourceNone})
}

// clip bounds a chunk to the configured rune budget. Caller supplied
// context is never clipped.
func (p *Pipeline) clip(text string) string {
	if p.cfg.MaxChunkLength <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= p.cfg.MaxChunkLength {
		return text
	}
	return string(runes[:p.cfg.MaxChunkLength])
}

func (p *Pipeline) done(b ContextBundle) ContextBundle {
	if p.metrics != nil {
		p.metrics.RecordRetrievalTier(string(b.Source))
	}
	return b
}
