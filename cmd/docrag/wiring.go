package main

import (
	"path/filepath"

	"github.com/aqua777/docrag/chunking"
	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/embedding"
	"github.com/aqua777/docrag/orchestrator"
	"github.com/aqua777/docrag/processor"
	"github.com/aqua777/docrag/repository"
	"github.com/aqua777/docrag/retrieval"
	"github.com/aqua777/docrag/storage/content"
	"github.com/aqua777/docrag/storage/metadata"
	"github.com/aqua777/docrag/storage/vectorstore"
)

// app bundles the fully wired pipeline, the CLI's equivalent of the
// desktop app's composition root.
type app struct {
	cfg    config.Config
	repo   *repository.Repository
	conn   *vectorstore.ConnectionProvider
	orch   *orchestrator.Orchestrator
	search *retrieval.Service
	sink   diagnostics.Sink
}

func newApp(libraryDir, dbPath, embedURL, embedModel string) (*app, error) {
	cfg := config.Default()
	sink := diagnostics.NewDefaultSlogSink()

	ms := metadata.New(filepath.Join(libraryDir, "library.json"), sink)
	cs := content.New(libraryDir)
	conn := vectorstore.NewConnectionProvider(dbPath, filepath.Join(libraryDir, "embeddings"), sink)
	if err := conn.Initialize(); err != nil {
		return nil, err
	}
	vs := vectorstore.NewSQLiteStore(conn, sink)
	repo := repository.New(ms, cs, vs, sink)

	registry := processor.NewDefaultRegistry()
	chunkSvc := chunking.NewDefaultChunkingService(cfg, sink)

	provider := embedding.NewRetryingProvider(embedding.NewHTTPProvider(embedURL, embedModel, embedding.WithSink(sink)), cfg, sink)

	orch := orchestrator.New(cfg, registry, chunkSvc, provider, repo, sink)
	search := retrieval.New(cfg, repo, provider, sink)

	return &app{cfg: cfg, repo: repo, conn: conn, orch: orch, search: search, sink: sink}, nil
}

func (a *app) Close() {
	a.conn.Close()
}
