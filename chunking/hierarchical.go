package chunking

import (
	"strings"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/schema"
)

// HierarchicalChunkingStrategy applies when a StructuredDocument with
// at least one element is available. It groups each heading together
// with the contiguous non-heading elements that follow it (up to the
// next heading of any level) into a single chunk, so a chunk's
// section_path/heading_level describe the section it represents rather
// than one isolated element; elements before the first heading form an
// unheaded preface group. A group that overflows ChunkSize is split by
// character count with the same context header repeated on every
// piece.
type HierarchicalChunkingStrategy struct {
	cfg  config.Config
	sink diagnostics.Sink
}

func NewHierarchicalChunkingStrategy(cfg config.Config, sink diagnostics.Sink) *HierarchicalChunkingStrategy {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	return &HierarchicalChunkingStrategy{cfg: cfg, sink: sink}
}

func (s *HierarchicalChunkingStrategy) Name() string { return "Hierarchical" }

func (s *HierarchicalChunkingStrategy) CanChunk(doc *schema.Document, structured *schema.StructuredDocument) bool {
	return structured.HasElements()
}

// elementGroup is a heading (or none, for the preface) plus the body
// elements that belong to it.
type elementGroup struct {
	heading *schema.DocumentElement
	body    []schema.DocumentElement
}

func (s *HierarchicalChunkingStrategy) Chunk(doc *schema.Document, structured *schema.StructuredDocument) []schema.Chunk {
	groups := groupBySection(structured.Elements)

	var chunks []schema.Chunk
	for _, g := range groups {
		sectionPath := ""
		headingLevel := 0
		chunkType := schema.ChunkTypeParagraphGroup
		var parts []string

		if g.heading != nil {
			sectionPath = g.heading.SectionPath
			headingLevel = g.heading.HeadingLevel
			chunkType = elementChunkType(g.heading.Type)
			if t := strings.TrimSpace(g.heading.Text); t != "" {
				parts = append(parts, t)
			}
		}
		for _, el := range g.body {
			if t := strings.TrimSpace(el.Text); t != "" {
				parts = append(parts, t)
			}
		}
		text := strings.TrimSpace(strings.Join(parts, "\n\n"))
		if text == "" {
			continue
		}

		header := contextHeader(sectionPath)
		if len(header) > 0 && s.cfg.ChunkSize-len(header) < 10 {
			s.sink.Warn("skipping section: context header leaves no room for content",
				"section_path", sectionPath, "chunk_size", s.cfg.ChunkSize)
			continue
		}
		budget := s.cfg.ChunkSize - len(header)

		if len(text) <= budget {
			chunks = append(chunks, newChunk(doc, header+text, chunkType, sectionPath, headingLevel))
			continue
		}
		partType := chunkType + "Part"
		for _, piece := range splitWithOverlap(text, budget, s.cfg.ChunkOverlap) {
			chunks = append(chunks, newChunk(doc, header+piece, partType, sectionPath, headingLevel))
		}
	}
	return assignIndices(chunks)
}

func groupBySection(elements []schema.DocumentElement) []elementGroup {
	var groups []elementGroup
	var current *elementGroup

	for i := range elements {
		el := elements[i]
		if isHeadingElement(el.Type) {
			if current != nil {
				groups = append(groups, *current)
			}
			current = &elementGroup{heading: &elements[i]}
			continue
		}
		if current == nil {
			current = &elementGroup{}
		}
		current.body = append(current.body, el)
	}
	if current != nil {
		groups = append(groups, *current)
	}
	return groups
}

func isHeadingElement(t schema.ElementType) bool {
	return t == schema.ElementHeading1 || t == schema.ElementHeading2 || t == schema.ElementHeading3
}

func elementChunkType(t schema.ElementType) string {
	switch t {
	case schema.ElementHeading1:
		return schema.ChunkTypeSection
	case schema.ElementHeading2, schema.ElementHeading3:
		return schema.ChunkTypeSubSection
	case schema.ElementCodeBlock:
		return schema.ChunkTypeCodeBlock
	default:
		return schema.ChunkTypeParagraphGroup
	}
}

var _ Strategy = (*HierarchicalChunkingStrategy)(nil)
