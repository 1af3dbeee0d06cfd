package repository

import (
	"path/filepath"
	"testing"

	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
	"github.com/aqua777/docrag/storage/content"
	"github.com/aqua777/docrag/storage/metadata"
	"github.com/aqua777/docrag/storage/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	base := t.TempDir()

	ms := metadata.New(filepath.Join(base, "library.json"), diagnostics.Noop())
	cs := content.New(base)
	conn := vectorstore.NewConnectionProvider(filepath.Join(base, "vectors.db"), "", diagnostics.Noop())
	require.NoError(t, conn.Initialize())
	t.Cleanup(func() { conn.Close() })
	vs := vectorstore.NewSQLiteStore(conn, diagnostics.Noop())

	return New(ms, cs, vs, diagnostics.Noop())
}

func TestRepository_SaveGetDelete(t *testing.T) {
	repo := newTestRepo(t)

	doc := &schema.Document{
		DocumentMetadata: schema.DocumentMetadata{ID: "doc-1", Name: "doc.txt", IsProcessed: true},
		Content:          "hello world",
		Chunks: []schema.Chunk{
			{ID: "c1", DocumentID: "doc-1", Content: "hello world", Embedding: []float32{1, 0}},
		},
	}
	require.NoError(t, repo.Save(doc))
	require.NoError(t, repo.AddVectors(doc))

	got, err := repo.Get("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Content)

	chunk, err := repo.GetChunkByID("c1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", chunk.Content)

	require.NoError(t, repo.Delete("doc-1"))

	_, err = repo.Get("doc-1")
	require.True(t, ragerr.Is(err, ragerr.NotFound))

	_, err = repo.GetChunkByID("c1")
	require.True(t, ragerr.Is(err, ragerr.NotFound))
}

func TestRepository_SearchRejectsEmptyAllowList(t *testing.T) {
	repo := newTestRepo(t)
	results, err := repo.Search([]float32{1, 0}, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRepository_SearchFiltersByAllowList(t *testing.T) {
	repo := newTestRepo(t)

	docA := &schema.Document{
		DocumentMetadata: schema.DocumentMetadata{ID: "doc-a", Name: "a.txt"},
		Chunks:           []schema.Chunk{{ID: "a1", DocumentID: "doc-a", Content: "alpha", Embedding: []float32{1, 0}}},
	}
	docB := &schema.Document{
		DocumentMetadata: schema.DocumentMetadata{ID: "doc-b", Name: "b.txt"},
		Chunks:           []schema.Chunk{{ID: "b1", DocumentID: "doc-b", Content: "beta", Embedding: []float32{1, 0}}},
	}
	require.NoError(t, repo.Save(docA))
	require.NoError(t, repo.AddVectors(docA))
	require.NoError(t, repo.Save(docB))
	require.NoError(t, repo.AddVectors(docB))

	results, err := repo.Search([]float32{1, 0}, []string{"doc-a"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].Chunk.DocumentID)
}
