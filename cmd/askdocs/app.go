package main

import (
	"context"
	"log"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/assistant"
	"github.com/mosaibah/askdocs/internal/docstore"
	"github.com/mosaibah/askdocs/internal/filemanager"
	"github.com/mosaibah/askdocs/internal/llm"
	"github.com/mosaibah/askdocs/internal/orchestrator"
	"github.com/mosaibah/askdocs/internal/plan"
	"github.com/mosaibah/askdocs/internal/retrieval"
	"github.com/mosaibah/askdocs/internal/sandbox"
	"github.com/mosaibah/askdocs/internal/server"
	"github.com/mosaibah/askdocs/internal/store"
	"github.com/mosaibah/askdocs/internal/telemetry"
	"github.com/mosaibah/askdocs/internal/webfetch"
	"github.com/mosaibah/askdocs/internal/websearch"
)

// buildDeps wires every collaborator from configuration. Optional
// pieces (postgres, redis, sandbox) degrade with a logged warning
// instead of failing startup.
func buildDeps(ctx context.Context, cfg *config.Config) (server.Deps, error) {
	logger := log.New(log.Writer(), "[APP] ", log.LstdFlags)

	provider, err := llm.NewDefaultProvider(cfg.LLM)
	if err != nil {
		return server.Deps{}, err
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.NewMetrics(nil)
	}
	var costs *telemetry.CostTracker
	if cfg.Telemetry.CostTracking {
		costs = telemetry.NewCostTracker()
	}

	docs, err := docstore.New(cfg.DocStore, provider, cfg.LLM.Routing.Embedding)
	if err != nil {
		return server.Deps{}, err
	}
	if dir := cfg.DocStore.Bleve.DocumentsDir; dir != "" {
		if _, err := docstore.LoadDir(ctx, docs, dir, nil); err != nil {
			logger.Printf("document load from %s failed: %v", dir, err)
		}
	}

	searcher, err := websearch.New(cfg.WebSearch)
	if err != nil {
		return server.Deps{}, err
	}

	pipeline := retrieval.NewPipeline(docs, searcher, cfg.Retrieval, metrics)
	generator := plan.NewGenerator(provider, cfg.LLM.Routing.Planning, costs)

	fm, err := filemanager.New(cfg.Files.Workspace)
	if err != nil {
		return server.Deps{}, err
	}

	runner, err := sandbox.NewRunner(cfg.Sandbox)
	if err != nil {
		logger.Printf("sandbox unavailable: %v", err)
		runner = nil
	}

	searchWorker := assistant.NewWebSearchWorker(searcher, cfg.WebSearch.MaxResults)
	if cfg.WebSearch.FetchPages {
		searchWorker = searchWorker.WithFetcher(webfetch.NewFetcher(cfg.General.DefaultTimeout, 0))
	}

	registry, err := assistant.NewRegistry(
		assistant.NewVectorStoreWorker(docs, cfg.Retrieval),
		searchWorker,
		assistant.NewLanguageModelWorker(provider, cfg.LLM.Routing.Generation, pipeline, costs),
		assistant.NewFileWorker(fm),
		assistant.NewCodeWorker(runner),
	)
	if err != nil {
		return server.Deps{}, err
	}

	orch := orchestrator.New(generator, registry, pipeline, provider, cfg.LLM.Routing.Generation, metrics)

	var archive *store.Archive
	if cfg.Storage.Postgres.URL != "" || cfg.Storage.Postgres.Host != "" {
		archive, err = store.NewArchive(cfg.Storage.Postgres)
		if err != nil {
			logger.Printf("query archive unavailable: %v", err)
			archive = nil
		}
	}

	var history store.History
	if cfg.Storage.Redis.Addr != "" {
		redisHistory, err := store.NewRedisHistory(cfg.Storage.Redis)
		if err != nil {
			logger.Printf("redis unavailable, using in-memory history: %v", err)
			history = store.NewMemoryHistory()
		} else {
			history = redisHistory
		}
	} else {
		history = store.NewMemoryHistory()
	}

	return server.Deps{
		Config:       cfg,
		Orchestrator: orch,
		Store:        docs,
		Archive:      archive,
		History:      history,
	}, nil
}
