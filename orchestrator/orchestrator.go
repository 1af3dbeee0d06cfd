// Package orchestrator implements ProcessingOrchestrator: the
// end-to-end ingestion pipeline from a document's raw content to
// persisted, embedded chunks.
package orchestrator

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aqua777/docrag/chunking"
	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/embedding"
	"github.com/aqua777/docrag/processor"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/repository"
	"github.com/aqua777/docrag/schema"
)

// Orchestrator runs process(document) end to end: structure
// extraction, chunking, embedding, and ordered persistence. A
// process-wide lock allows at most one document through at a time,
// which simplifies embedding back-pressure and repository consistency
// at the cost of ingestion throughput.
type Orchestrator struct {
	cfg        config.Config
	registry   *processor.Registry
	chunker    *chunking.ChunkingService
	embedder   embedding.Provider
	repo       *repository.Repository
	sink       diagnostics.Sink
	processing sync.Mutex
}

func New(cfg config.Config, registry *processor.Registry, chunker *chunking.ChunkingService, embedder embedding.Provider, repo *repository.Repository, sink diagnostics.Sink) *Orchestrator {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	return &Orchestrator{cfg: cfg, registry: registry, chunker: chunker, embedder: embedder, repo: repo, sink: sink}
}

// Process runs doc through extraction, chunking, embedding, and
// persistence, returning the updated document. doc must already carry
// its metadata (ID, FilePath, Name); reprocessing an existing id is
// idempotent.
func (o *Orchestrator) Process(ctx context.Context, doc *schema.Document) (*schema.Document, error) {
	o.processing.Lock()
	defer o.processing.Unlock()

	if err := o.extractAndChunk(doc); err != nil {
		doc.IsProcessed = false
		doc.HasEmbeddings = false
		doc.Chunks = nil
		if saveErr := o.repo.Save(doc); saveErr != nil {
			o.sink.Error("failed to save metadata after processing failure", "document_id", doc.ID, "error", saveErr.Error())
		}
		return nil, ragerr.New(ragerr.DocumentProcessingError, "processing document "+doc.ID, err)
	}

	o.embedChunks(ctx, doc)

	surviving := doc.Chunks[:0]
	for _, c := range doc.Chunks {
		if len(c.Embedding) > 0 {
			surviving = append(surviving, c)
		}
	}
	doc.Chunks = surviving

	doc.IsProcessed = len(doc.Chunks) > 0
	doc.IsSelected = true
	doc.HasEmbeddings = doc.IsProcessed

	if err := o.repo.Save(doc); err != nil {
		return nil, err
	}
	if err := o.repo.AddVectors(doc); err != nil {
		o.sink.Error("vector store persistence failed; document remains processed and retryable", "document_id", doc.ID, "error", err.Error())
		return doc, err
	}
	return doc, nil
}

// extractAndChunk performs steps 1-4: validate the path, (re)load
// content, extract structure with fallback, and chunk. Any failure
// here is unrecoverable for the document as a whole.
func (o *Orchestrator) extractAndChunk(doc *schema.Document) error {
	if _, err := os.Stat(doc.FilePath); err != nil {
		return ragerr.New(ragerr.NotFound, "document file not found: "+doc.FilePath, err)
	}

	ext := filepath.Ext(doc.FilePath)
	proc, err := o.registry.For(ext)
	if err != nil {
		return err
	}

	if doc.Content == "" {
		text, err := proc.ExtractText(doc.FilePath)
		if err != nil {
			return ragerr.New(ragerr.CorruptDocument, "extracting text from "+doc.FilePath, err)
		}
		doc.Content = text
	}

	var structured *schema.StructuredDocument
	if proc.SupportsStructuredExtraction() {
		s, err := proc.ExtractStructure(doc.FilePath)
		if err != nil {
			o.sink.Warn("structured extraction failed, falling back to unstructured chunking", "document_id", doc.ID, "error", err.Error())
			structured = &schema.StructuredDocument{}
		} else {
			structured = s
		}
	} else {
		structured = &schema.StructuredDocument{}
	}

	chunks := o.chunker.Chunk(doc, structured)
	if len(chunks) == 0 {
		chunks = o.fixedSizeFallback(doc)
	}
	doc.Chunks = chunks
	return nil
}

// fixedSizeFallback is invoked when every chunking strategy, including
// the Text default, produces nothing: a document under 2x ChunkSize
// becomes one FullDocument chunk, otherwise it is sliced into
// ChunkSize-sized FixedSizeFallback pieces.
func (o *Orchestrator) fixedSizeFallback(doc *schema.Document) []schema.Chunk {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil
	}

	if len(content) <= 2*o.cfg.ChunkSize {
		return []schema.Chunk{{
			ID:         schema.NewChunkID(),
			DocumentID: doc.ID,
			Content:    content,
			Source:     doc.Name,
			ChunkType:  schema.ChunkTypeFullDocument,
			ChunkIndex: 0,
		}}
	}

	runes := []rune(content)
	sliceCount := int(math.Ceil(float64(len(runes)) / float64(o.cfg.ChunkSize)))
	chunks := make([]schema.Chunk, 0, sliceCount)
	for i := 0; i < sliceCount; i++ {
		start := i * o.cfg.ChunkSize
		end := start + o.cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece == "" {
			continue
		}
		chunks = append(chunks, schema.Chunk{
			ID:         schema.NewChunkID(),
			DocumentID: doc.ID,
			Content:    piece,
			Source:     doc.Name,
			ChunkType:  schema.ChunkTypeFixedSizeFallback,
			ChunkIndex: len(chunks),
		})
	}
	return chunks
}

// embedChunks dispatches chunks in batches of EmbeddingBatchSize,
// embedding all chunks of a batch concurrently and awaiting the whole
// batch before starting the next. A per-chunk failure leaves that
// chunk's Embedding empty and is logged; it never aborts the document
// or later batches. No file or DB lock is held while awaiting
// embeddings.
func (o *Orchestrator) embedChunks(ctx context.Context, doc *schema.Document) {
	batchSize := o.cfg.EmbeddingBatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	for start := 0; start < len(doc.Chunks); start += batchSize {
		end := start + batchSize
		if end > len(doc.Chunks) {
			end = len(doc.Chunks)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				vec, err := o.embedder.Embed(ctx, doc.Chunks[idx].Content)
				if err != nil {
					o.sink.Warn("embedding failed for chunk, dropping it", "document_id", doc.ID, "chunk_id", doc.Chunks[idx].ID, "error", err.Error())
					return
				}
				doc.Chunks[idx].Embedding = vec
			}(i)
		}
		wg.Wait()
	}
}
