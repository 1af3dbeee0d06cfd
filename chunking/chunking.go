// Package chunking implements the chunking subsystem: multiple
// pluggable strategies, each a value implementing a small capability
// interface, dispatched in registration order with explicit fallback.
package chunking

import (
	"strings"
	"sync"

	"github.com/aqua777/docrag/schema"
	"github.com/aqua777/docrag/textsplitter"
)

// Strategy produces chunks from a document and, optionally, its
// structured form.
type Strategy interface {
	Name() string
	CanChunk(doc *schema.Document, structured *schema.StructuredDocument) bool
	Chunk(doc *schema.Document, structured *schema.StructuredDocument) []schema.Chunk
}

// contextHeader builds the "Context: <section_path>\n\n" prefix; empty
// when sectionPath is empty.
func contextHeader(sectionPath string) string {
	if sectionPath == "" {
		return ""
	}
	return "Context: " + sectionPath + "\n\n"
}

// newChunk builds a chunk with the invariants every strategy owes:
// document_id set, source defaulted to the document name, embedding
// left empty.
func newChunk(doc *schema.Document, content, chunkType, sectionPath string, headingLevel int) schema.Chunk {
	return schema.Chunk{
		ID:           schema.NewChunkID(),
		DocumentID:   doc.ID,
		Content:      content,
		Source:       doc.Name,
		ChunkType:    chunkType,
		SectionPath:  sectionPath,
		HeadingLevel: headingLevel,
	}
}

// splitWithOverlap splits s into pieces no longer than size characters,
// seeding each subsequent piece with the trailing overlap characters
// of the previous one. Used wherever an oversized element or paragraph
// buffer must be cut by raw character count. Within the size budget it
// prefers to land the cut on a sentence boundary; it never cuts later
// than size to buy that, only earlier.
func splitWithOverlap(s string, size, overlap int) []string {
	if size <= 0 {
		return []string{s}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	var pieces []string
	runes := []rune(s)
	start := 0
	for start < len(runes) {
		rawEnd := start + size
		if rawEnd > len(runes) {
			rawEnd = len(runes)
		}
		end := sentenceAdjustedEnd(runes, start, rawEnd)
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
		if end == len(runes) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return pieces
}

var (
	sentenceSplitterOnce sync.Once
	sentenceSplitter     textsplitter.SentenceSplitterStrategy
)

func sharedSentenceSplitter() textsplitter.SentenceSplitterStrategy {
	sentenceSplitterOnce.Do(func() {
		s, err := textsplitter.NewNeurosnapSplitterStrategy(nil)
		if err != nil {
			// Training data is embedded and fixed, so this cannot fail at
			// runtime; fall back to raw character cuts if it somehow does.
			sentenceSplitter = nil
			return
		}
		sentenceSplitter = s
	})
	return sentenceSplitter
}

// minSentenceCutFraction bounds how far sentenceAdjustedEnd will pull
// the cut back from rawEnd in search of a sentence boundary, so a
// single abnormally long sentence can't collapse a piece to near
// nothing.
const minSentenceCutFraction = 0.5

// sentenceAdjustedEnd looks for a sentence boundary inside
// runes[start:rawEnd] and, if one exists past the minimum fraction of
// the window, returns its offset instead of rawEnd. It never returns a
// value greater than rawEnd.
func sentenceAdjustedEnd(runes []rune, start, rawEnd int) int {
	splitter := sharedSentenceSplitter()
	if splitter == nil || rawEnd-start <= 0 {
		return rawEnd
	}
	window := string(runes[start:rawEnd])
	sentences := splitter.Split(window)
	if len(sentences) < 2 {
		return rawEnd
	}
	minCut := int(float64(rawEnd-start) * minSentenceCutFraction)

	best := -1
	offset := 0
	for _, sent := range sentences {
		offset += len([]rune(sent))
		if offset >= minCut && offset <= rawEnd-start {
			best = offset
		}
	}
	if best <= 0 {
		return rawEnd
	}
	return start + best
}

// assignIndices stamps a single monotonically increasing chunk_index
// counter across every chunk produced by one chunking invocation.
func assignIndices(chunks []schema.Chunk) []schema.Chunk {
	for i := range chunks {
		chunks[i].ChunkIndex = i
	}
	return chunks
}
