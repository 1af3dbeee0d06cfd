package chunking

import (
	"regexp"
	"strings"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/schema"
)

var paragraphBoundaryRe = regexp.MustCompile(`\r?\n\s*\r?\n`)

// TextChunkingStrategy is the default, always-applicable strategy:
// split on paragraph boundaries, greedily pack a buffer up to
// ChunkSize, and seed the next chunk with the trailing ChunkOverlap
// characters of the one just flushed.
type TextChunkingStrategy struct {
	cfg config.Config
}

func NewTextChunkingStrategy(cfg config.Config) *TextChunkingStrategy {
	return &TextChunkingStrategy{cfg: cfg}
}

func (s *TextChunkingStrategy) Name() string { return "Text" }

// CanChunk always returns true: it is the default strategy invoked
// when nothing else applies.
func (s *TextChunkingStrategy) CanChunk(doc *schema.Document, structured *schema.StructuredDocument) bool {
	return true
}

func (s *TextChunkingStrategy) Chunk(doc *schema.Document, structured *schema.StructuredDocument) []schema.Chunk {
	return assignIndices(s.chunkText(doc, doc.Content, "" /* sectionPath */, 0))
}

// chunkText is reused directly by StructuredChunkingStrategy to
// recurse over a single section's body text, prepending the same
// context header to every sub-chunk it produces and stamping
// headingLevel onto each one.
func (s *TextChunkingStrategy) chunkText(doc *schema.Document, text, sectionPath string, headingLevel int) []schema.Chunk {
	header := contextHeader(sectionPath)
	paragraphs := paragraphBoundaryRe.Split(strings.TrimSpace(text), -1)
	budget := s.cfg.ChunkSize - len(header)

	var chunks []schema.Chunk
	var buf strings.Builder

	flush := func() {
		content := strings.TrimSpace(buf.String())
		buf.Reset()
		if content == "" {
			return
		}
		chunks = append(chunks, newChunk(doc, header+content, schema.ChunkTypeParagraphGroup, sectionPath, headingLevel))
	}

	// addParagraph appends para to whatever is already buffered
	// (a prior overlap seed, or nothing) if it fits within budget.
	// Otherwise it flushes the buffer first, then seeds the new
	// buffer with the flushed chunk's trailing overlap only if that
	// seed still leaves room for para — a seed that wouldn't fit is
	// dropped rather than carried into an oversized chunk. A
	// paragraph too long for the budget even on its own is split
	// with splitWithOverlap regardless of how it got here.
	addParagraph := func(para string) {
		if buf.Len() > 0 && buf.Len()+len(para)+2 <= budget {
			buf.WriteString("\n\n")
			buf.WriteString(para)
			return
		}

		var seed string
		if buf.Len() > 0 {
			seed = overlapSuffix(buf.String(), s.cfg.ChunkOverlap)
		}
		flush()

		if seed != "" && len(seed)+len(para)+2 <= budget {
			buf.WriteString(seed)
			buf.WriteString("\n\n")
			buf.WriteString(para)
			return
		}
		if len(para) > budget {
			for _, piece := range splitWithOverlap(para, budget, s.cfg.ChunkOverlap) {
				chunks = append(chunks, newChunk(doc, header+piece, schema.ChunkTypeParagraphGroup, sectionPath, headingLevel))
			}
			return
		}
		buf.WriteString(para)
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		addParagraph(para)
	}
	flush()

	return chunks
}

// overlapSuffix returns the trailing n characters of s, or all of s if
// shorter.
func overlapSuffix(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) == 0 {
		return ""
	}
	if n >= len(runes) {
		return s
	}
	return string(runes[len(runes)-n:])
}

var _ Strategy = (*TextChunkingStrategy)(nil)
