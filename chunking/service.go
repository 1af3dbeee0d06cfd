package chunking

import (
	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/schema"
)

// ChunkingService dispatches a document to the first registered
// strategy that both claims it and actually produces chunks, falling
// back to the Text strategy (and, if even that yields nothing, to the
// caller) when none does.
type ChunkingService struct {
	strategies []Strategy
	text       *TextChunkingStrategy
	sink       diagnostics.Sink
}

// NewDefaultChunkingService registers the strategies in the order the
// dispatch algorithm favors them: Hierarchical first (needs a
// StructuredDocument), then Structured (Markdown-heading regex on raw
// text), then Code, then Text as the explicit default.
func NewDefaultChunkingService(cfg config.Config, sink diagnostics.Sink) *ChunkingService {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	text := NewTextChunkingStrategy(cfg)
	return &ChunkingService{
		strategies: []Strategy{
			NewHierarchicalChunkingStrategy(cfg, sink),
			NewStructuredChunkingStrategy(cfg),
			NewCodeChunkingStrategy(cfg),
			text,
		},
		text: text,
		sink: sink,
	}
}

// Chunk walks the registered strategies in order. The first one that
// both CanChunk and returns at least one chunk wins. If none applies,
// or every applicable strategy produces zero chunks, the Text strategy
// is invoked as the explicit default. An empty result at that point is
// returned to the caller, which is expected to fall back to a
// fixed-size split of the raw content.
func (c *ChunkingService) Chunk(doc *schema.Document, structured *schema.StructuredDocument) []schema.Chunk {
	for _, strat := range c.strategies {
		if strat == Strategy(c.text) {
			continue
		}
		if !strat.CanChunk(doc, structured) {
			continue
		}
		chunks := strat.Chunk(doc, structured)
		if len(chunks) > 0 {
			c.sink.Debug("chunking strategy produced chunks", "strategy", strat.Name(), "count", len(chunks))
			return chunks
		}
		c.sink.Debug("chunking strategy applied but produced no chunks, trying next", "strategy", strat.Name())
	}

	chunks := c.text.Chunk(doc, structured)
	if len(chunks) == 0 {
		c.sink.Warn("no chunking strategy produced output", "document_id", doc.ID)
	}
	return chunks
}
