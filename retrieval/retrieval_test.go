package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/repository"
	"github.com/aqua777/docrag/schema"
	"github.com/aqua777/docrag/storage/content"
	"github.com/aqua777/docrag/storage/metadata"
	"github.com/aqua777/docrag/storage/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder returns the same vector for every query, regardless of
// text, so tests can control similarity scores precisely via the
// chunk embeddings they insert.
type fixedEmbedder struct {
	vec []float32
}

func (e *fixedEmbedder) Embed(context.Context, string) ([]float32, error) { return e.vec, nil }
func (e *fixedEmbedder) TestConnection(context.Context) error             { return nil }

func newTestService(t *testing.T, embedder *fixedEmbedder, cfg config.Config) (*Service, *repository.Repository) {
	t.Helper()
	base := t.TempDir()

	ms := metadata.New(filepath.Join(base, "library.json"), diagnostics.Noop())
	cs := content.New(base)
	conn := vectorstore.NewConnectionProvider(filepath.Join(base, "vectors.db"), "", diagnostics.Noop())
	require.NoError(t, conn.Initialize())
	t.Cleanup(func() { conn.Close() })
	vs := vectorstore.NewSQLiteStore(conn, diagnostics.Noop())
	repo := repository.New(ms, cs, vs, diagnostics.Noop())

	return New(cfg, repo, embedder, diagnostics.Noop()), repo
}

func seedDoc(t *testing.T, repo *repository.Repository, id string, chunks []schema.Chunk) {
	t.Helper()
	doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{ID: id, Name: id + ".txt"}, Chunks: chunks}
	require.NoError(t, repo.Save(doc))
	require.NoError(t, repo.AddVectors(doc))
}

func TestService_RetrieveFiltersByThresholdAndAllowList(t *testing.T) {
	cfg := config.Default()
	cfg.MinSimilarityScore = 0.5
	svc, repo := newTestService(t, &fixedEmbedder{vec: []float32{1, 0}}, cfg)

	seedDoc(t, repo, "doc-a", []schema.Chunk{
		{ID: "a1", DocumentID: "doc-a", Content: "matches well", Embedding: []float32{1, 0}},
		{ID: "a2", DocumentID: "doc-a", Content: "barely related", Embedding: []float32{0.1, 0.99}},
	})
	seedDoc(t, repo, "doc-b", []schema.Chunk{
		{ID: "b1", DocumentID: "doc-b", Content: "excluded by allow-list", Embedding: []float32{1, 0}},
	})

	results, err := svc.Retrieve(context.Background(), "what matches", []string{"doc-a"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a1", results[0].Chunk.ID)
}

func TestService_RetrieveRejectsEmptyQuery(t *testing.T) {
	svc, _ := newTestService(t, &fixedEmbedder{vec: []float32{1, 0}}, config.Default())

	_, err := svc.Retrieve(context.Background(), "   ", []string{"doc-a"}, 5)
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.InvalidArgument))
}

func TestService_RetrieveEmptyAllowListYieldsEmptyResult(t *testing.T) {
	cfg := config.Default()
	svc, repo := newTestService(t, &fixedEmbedder{vec: []float32{1, 0}}, cfg)
	seedDoc(t, repo, "doc-a", []schema.Chunk{
		{ID: "a1", DocumentID: "doc-a", Content: "x", Embedding: []float32{1, 0}},
	})

	results, err := svc.Retrieve(context.Background(), "query", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_RetrieveUsesDefaultKWhenNonPositive(t *testing.T) {
	cfg := config.Default()
	cfg.MaxRetrievedChunks = 1
	cfg.MinSimilarityScore = 0
	svc, repo := newTestService(t, &fixedEmbedder{vec: []float32{1, 0}}, cfg)

	seedDoc(t, repo, "doc-a", []schema.Chunk{
		{ID: "a1", DocumentID: "doc-a", Content: "one", Embedding: []float32{1, 0}},
		{ID: "a2", DocumentID: "doc-a", Content: "two", Embedding: []float32{0.9, 0.1}},
	})

	results, err := svc.Retrieve(context.Background(), "query", []string{"doc-a"}, 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestService_RetrieveCachesIdenticalQueries(t *testing.T) {
	cfg := config.Default()
	cfg.MinSimilarityScore = 0
	svc, repo := newTestService(t, &fixedEmbedder{vec: []float32{1, 0}}, cfg)
	seedDoc(t, repo, "doc-a", []schema.Chunk{
		{ID: "a1", DocumentID: "doc-a", Content: "one", Embedding: []float32{1, 0}},
	})

	first, err := svc.Retrieve(context.Background(), "query", []string{"doc-a"}, 5)
	require.NoError(t, err)

	require.NoError(t, repo.Delete("doc-a"))

	second, err := svc.Retrieve(context.Background(), "query", []string{"doc-a"}, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	svc.InvalidateCache()
	third, err := svc.Retrieve(context.Background(), "query", []string{"doc-a"}, 5)
	require.NoError(t, err)
	assert.Empty(t, third)
}
