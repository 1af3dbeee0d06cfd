package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aqua777/docrag/chunking"
	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/processor"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/repository"
	"github.com/aqua777/docrag/schema"
	"github.com/aqua777/docrag/storage/content"
	"github.com/aqua777/docrag/storage/metadata"
	"github.com/aqua777/docrag/storage/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder embeds every non-empty text to a fixed vector unless its
// content is in failOn, in which case it errors.
type stubEmbedder struct {
	failOn map[string]bool
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failOn[text] {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "stub failure for "+text, nil)
	}
	return []float32{1, 0}, nil
}

func (e *stubEmbedder) TestConnection(context.Context) error { return nil }

func newTestOrchestrator(t *testing.T, embedder *stubEmbedder) (*Orchestrator, *repository.Repository) {
	t.Helper()
	base := t.TempDir()

	ms := metadata.New(filepath.Join(base, "library.json"), diagnostics.Noop())
	cs := content.New(base)
	conn := vectorstore.NewConnectionProvider(filepath.Join(base, "vectors.db"), "", diagnostics.Noop())
	require.NoError(t, conn.Initialize())
	t.Cleanup(func() { conn.Close() })
	vs := vectorstore.NewSQLiteStore(conn, diagnostics.Noop())
	repo := repository.New(ms, cs, vs, diagnostics.Noop())

	cfg := config.Default()
	registry := processor.NewDefaultRegistry()
	chunkSvc := chunking.NewDefaultChunkingService(cfg, diagnostics.Noop())

	return New(cfg, registry, chunkSvc, embedder, repo, diagnostics.Noop()), repo
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOrchestrator_ProcessPlainText(t *testing.T) {
	orch, repo := newTestOrchestrator(t, &stubEmbedder{})

	path := writeTempFile(t, "note.txt", "Hello there. This is a short plain-text note about nothing in particular.")
	doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{
		ID: schema.NewDocumentID(), Name: "note.txt", FilePath: path,
	}}

	processed, err := orch.Process(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, processed.IsProcessed)
	assert.True(t, processed.HasEmbeddings)
	assert.True(t, processed.IsSelected)
	assert.NotEmpty(t, processed.Chunks)
	for _, c := range processed.Chunks {
		assert.NotEmpty(t, c.Embedding)
	}

	got, err := repo.Get(doc.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Content, "Hello there")
}

func TestOrchestrator_ProcessMarkdownStructured(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &stubEmbedder{})

	path := writeTempFile(t, "doc.md", "# Intro\n\nHello.\n\n## Details\n\nThe answer is 42.")
	doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{
		ID: schema.NewDocumentID(), Name: "doc.md", FilePath: path,
	}}

	processed, err := orch.Process(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, processed.Chunks, 2)
	assert.Equal(t, "Intro", processed.Chunks[0].SectionPath)
	assert.Equal(t, "Intro / Details", processed.Chunks[1].SectionPath)
}

func TestOrchestrator_MissingFileFailsAndMarksUnprocessed(t *testing.T) {
	orch, repo := newTestOrchestrator(t, &stubEmbedder{})

	doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{
		ID: schema.NewDocumentID(), Name: "gone.txt", FilePath: filepath.Join(t.TempDir(), "gone.txt"),
	}}

	_, err := orch.Process(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.DocumentProcessingError))

	all, err := repo.ListAll()
	require.NoError(t, err)
	md, ok := all[doc.ID]
	require.True(t, ok)
	assert.False(t, md.IsProcessed)
	assert.False(t, md.HasEmbeddings)
}

func TestOrchestrator_UnsupportedExtensionFails(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &stubEmbedder{})

	path := writeTempFile(t, "data.xyz", "whatever")
	doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{
		ID: schema.NewDocumentID(), Name: "data.xyz", FilePath: path,
	}}

	_, err := orch.Process(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.DocumentProcessingError))
}

func TestOrchestrator_PartialEmbeddingFailureDropsOnlyThoseChunks(t *testing.T) {
	content := "# Alpha\n\nAlpha paragraph one.\n\n# Bravo\n\nBravo paragraph two.\n\n# Charlie\n\nCharlie paragraph three."
	embedder := &stubEmbedder{failOn: map[string]bool{"Context: Bravo\n\nBravo\n\nBravo paragraph two.": true}}
	orch, _ := newTestOrchestrator(t, embedder)

	path := writeTempFile(t, "note.txt", content)
	doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{
		ID: schema.NewDocumentID(), Name: "note.txt", FilePath: path,
	}}

	processed, err := orch.Process(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, processed.Chunks, 2)
	for _, c := range processed.Chunks {
		assert.NotContains(t, c.Content, "Bravo paragraph two.")
	}
}

func TestOrchestrator_FixedSizeFallbackForUnchunkableContent(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &stubEmbedder{})
	orch.cfg.ChunkSize = 20

	big := ""
	for i := 0; i < 80; i++ {
		big += "x"
	}
	path := writeTempFile(t, "blob.txt", big)
	doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{
		ID: schema.NewDocumentID(), Name: "blob.txt", FilePath: path,
	}}

	processed, err := orch.Process(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, processed.Chunks)

	fallback := orch.fixedSizeFallback(processed)
	require.Len(t, fallback, 4)
	for _, c := range fallback {
		assert.Equal(t, schema.ChunkTypeFixedSizeFallback, c.ChunkType)
	}
}
