// Package schema defines the core data model shared by every docrag
// component: document identity, metadata, content, chunks, and the
// structured-element tree produced by processors that can see document
// structure.
package schema

import (
	"time"

	"github.com/google/uuid"
)

// NewDocumentID generates a new universally unique document identifier.
func NewDocumentID() string {
	return uuid.NewString()
}

// NewChunkID generates a new universally unique chunk identifier.
func NewChunkID() string {
	return uuid.NewString()
}

// DocumentMetadata is the lightweight, always-loadable-as-a-batch record
// describing a document. has_embeddings implies is_processed, and
// is_processed is set only when at least one chunk survived embedding: a
// document whose every embed call failed is left unprocessed.
type DocumentMetadata struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FilePath      string    `json:"file_path"`
	DateAdded     time.Time `json:"date_added"`
	DocumentType  string    `json:"document_type"`
	FileSize      int64     `json:"file_size"`
	IsProcessed   bool      `json:"is_processed"`
	IsSelected    bool      `json:"is_selected"`
	HasEmbeddings bool      `json:"has_embeddings"`
}

// Document is the full in-memory assembly of a document: its metadata,
// raw content, and the transient chunk list built during processing.
// Chunks is never persisted as part of the document record itself — it
// is assembled fresh on each process() call and written out separately
// by the content and vector stores.
type Document struct {
	DocumentMetadata
	Content string
	Chunks  []Chunk
}

// Chunk is a bounded passage of a document plus its embedding and
// provenance. ChunkIndex is assigned by a single monotonically
// increasing counter per chunking invocation; after filtering
// (empty-embedding removal) the surviving indices need not be dense.
type Chunk struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
	Source       string    `json:"source"`
	Embedding    []float32 `json:"embedding"`
	ChunkType    string    `json:"chunk_type"`
	SectionPath  string    `json:"section_path,omitempty"`
	HeadingLevel int       `json:"heading_level,omitempty"`
}

// Chunk type tags. These are the spec's canonical set; strategies may
// also emit a "<Type>Part" variant when an element had to be split.
const (
	ChunkTypeParagraphGroup   = "ParagraphGroup"
	ChunkTypeSection          = "Section"
	ChunkTypeSubSection       = "SubSection"
	ChunkTypeCodeBlock        = "CodeBlock"
	ChunkTypeCodeText         = "CodeText"
	ChunkTypeDefinition       = "Definition"
	ChunkTypeFullDocument     = "FullDocument"
	ChunkTypeFixedSizeFallback = "FixedSizeFallback"
)

// LongLineSuffix is appended to chunk_type when a single line forced a
// chunk past ChunkSize (the one sanctioned exception to the size bound).
const LongLineSuffix = "(LongLine)"

// ElementType tags the kind of a StructuredDocument element. These are
// a closed sum type: chunking strategies switch on Type directly rather
// than relying on any inheritance hierarchy.
type ElementType string

const (
	ElementHeading1 ElementType = "Heading1"
	ElementHeading2 ElementType = "Heading2"
	ElementHeading3 ElementType = "Heading3"
	ElementParagraph ElementType = "Paragraph"
	ElementListItem ElementType = "ListItem"
	ElementCodeBlock ElementType = "CodeBlock"
	ElementQuote    ElementType = "Quote"
	ElementTable    ElementType = "Table"
)

// HeadingLevel returns the numeric heading level for Heading1..3, or 0
// for non-heading element types.
func (t ElementType) HeadingLevel() int {
	switch t {
	case ElementHeading1:
		return 1
	case ElementHeading2:
		return 2
	case ElementHeading3:
		return 3
	default:
		return 0
	}
}

// DocumentElement is one node of the ordered, typed structure tree a
// processor's extract_structure produces. SectionPath is reconstructed
// at extraction time from a heading stack; no back-pointers between
// elements are kept (section paths are values, not graph edges).
type DocumentElement struct {
	Type         ElementType
	Text         string
	HeadingLevel int
	SectionPath  string
	Metadata     map[string]any
}

// StructuredDocument is the ordered element list mirroring a document's
// visible structure (headings, paragraphs, lists, code, tables).
type StructuredDocument struct {
	Title    string
	Elements []DocumentElement
}

// HasElements reports whether the structured document carries at least
// one element, the gate HierarchicalChunkingStrategy uses to decide
// whether it applies.
func (s *StructuredDocument) HasElements() bool {
	return s != nil && len(s.Elements) > 0
}
