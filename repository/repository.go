// Package repository composes the metadata, content, and vector
// stores behind a single document-centric API, the normative variant
// that backs get_chunk_by_id with the vector store and exposes an
// allow-list-aware Search.
package repository

import (
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/schema"
	"github.com/aqua777/docrag/storage/content"
	"github.com/aqua777/docrag/storage/metadata"
	"github.com/aqua777/docrag/storage/vectorstore"
)

// Repository is the sole entry point the orchestrator and retrieval
// service use to reach persisted state; neither talks to an individual
// store directly.
type Repository struct {
	metadataStore *metadata.Store
	contentStore  *content.Store
	vectorStore   *vectorstore.SQLiteStore
	sink          diagnostics.Sink
}

func New(metadataStore *metadata.Store, contentStore *content.Store, vectorStore *vectorstore.SQLiteStore, sink diagnostics.Sink) *Repository {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	return &Repository{metadataStore: metadataStore, contentStore: contentStore, vectorStore: vectorStore, sink: sink}
}

// Save persists a document's metadata, content, and chunk list, in
// that order. It does not touch the vector store: callers add vectors
// separately so a vector-store failure after a successful Save leaves
// the document recorded as processed and retryable.
func (r *Repository) Save(doc *schema.Document) error {
	if err := r.metadataStore.Upsert(doc.DocumentMetadata); err != nil {
		return err
	}
	if err := r.contentStore.SaveContent(doc.ID, doc.Content); err != nil {
		return err
	}
	if err := r.contentStore.SaveEmbeddings(doc.ID, doc.Chunks); err != nil {
		return err
	}
	return nil
}

// AddVectors upserts a document's chunks into the vector store. Safe
// to retry: it deletes then re-inserts the document's rows.
func (r *Repository) AddVectors(doc *schema.Document) error {
	return r.vectorStore.AddVectors(doc.ID, doc.Name, doc.Chunks)
}

// Get returns a document's metadata and raw content.
func (r *Repository) Get(id string) (*schema.Document, error) {
	md, err := r.metadataStore.Get(id)
	if err != nil {
		return nil, err
	}
	text, err := r.contentStore.LoadContent(id)
	if err != nil {
		return nil, err
	}
	return &schema.Document{DocumentMetadata: md, Content: text}, nil
}

// ListAll returns a snapshot of every document's metadata.
func (r *Repository) ListAll() (map[string]schema.DocumentMetadata, error) {
	return r.metadataStore.LoadAll()
}

// Delete removes a document from every store in vectors, content,
// embeddings, metadata order. Ordering is strict: a failure at any
// step halts deletion to avoid orphaned state, and the caller sees the
// first failure. Metadata goes last, so a document whose delete stopped
// partway is still listed and the delete can be retried.
func (r *Repository) Delete(id string) error {
	if err := r.vectorStore.RemoveVectors(id); err != nil {
		return err
	}
	if err := r.contentStore.DeleteContent(id); err != nil {
		return err
	}
	if err := r.contentStore.DeleteEmbeddings(id); err != nil {
		return err
	}
	if err := r.metadataStore.Delete(id); err != nil {
		return err
	}
	r.contentStore.Forget(id)
	return nil
}

// GetChunkByID is vector-store-backed: it performs a point lookup
// directly against the vector store rather than reconstructing the
// chunk from a document's content-store embeddings file.
func (r *Repository) GetChunkByID(chunkID string) (schema.Chunk, error) {
	return r.vectorStore.GetChunkByID(chunkID)
}

// Search is the allow-list-aware vector search every retrieval call
// goes through: it rejects an empty allow-list up front rather than
// falling through to an unfiltered scan.
func (r *Repository) Search(query []float32, allowedDocIDs []string, k int) ([]vectorstore.ScoredChunk, error) {
	if len(allowedDocIDs) == 0 {
		return nil, nil
	}
	return r.vectorStore.SearchInDocuments(query, allowedDocIDs, k)
}
