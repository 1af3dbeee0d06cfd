package chunking

import (
	"regexp"
	"strings"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/schema"
)

// markdownHeadingRe matches an ATX-style Markdown heading line: 1-6
// leading '#' characters, at least one space, then the title.
var markdownHeadingRe = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*$`)

// StructuredChunkingStrategy detects Markdown-style headings directly
// in a document's raw text via regex, independent of whether a
// StructuredDocument was produced at all. It applies whenever the
// content contains at least one ATX heading line, which makes it a
// useful fallback for plain-text renderings of Markdown-like sources
// that never ran through MarkdownProcessor.extract_structure.
type StructuredChunkingStrategy struct {
	cfg  config.Config
	text *TextChunkingStrategy
}

func NewStructuredChunkingStrategy(cfg config.Config) *StructuredChunkingStrategy {
	return &StructuredChunkingStrategy{cfg: cfg, text: NewTextChunkingStrategy(cfg)}
}

func (s *StructuredChunkingStrategy) Name() string { return "Structured" }

func (s *StructuredChunkingStrategy) CanChunk(doc *schema.Document, structured *schema.StructuredDocument) bool {
	return markdownHeadingRe.MatchString(doc.Content)
}

type headingMatch struct {
	level int
	title string
	start int // index where the section body begins (after the heading line)
}

func (s *StructuredChunkingStrategy) Chunk(doc *schema.Document, structured *schema.StructuredDocument) []schema.Chunk {
	locs := markdownHeadingRe.FindAllStringSubmatchIndex(doc.Content, -1)
	if len(locs) == 0 {
		return nil
	}

	headings := make([]headingMatch, 0, len(locs))
	for _, loc := range locs {
		level := loc[3] - loc[2]
		title := strings.TrimSpace(doc.Content[loc[4]:loc[5]])
		headings = append(headings, headingMatch{level: level, title: title, start: loc[1]})
	}

	var chunks []schema.Chunk

	if preface := strings.TrimSpace(doc.Content[:locs[0][0]]); preface != "" {
		chunks = append(chunks, s.text.chunkText(doc, preface, "", 0)...)
	}

	stack := &sectionStack{}
	for i, h := range headings {
		stack.push(h.level, h.title)
		sectionPath := stack.path()

		bodyEnd := len(doc.Content)
		if i+1 < len(headings) {
			bodyEnd = locs[i+1][0]
		}
		body := strings.TrimSpace(doc.Content[h.start:bodyEnd])

		text := h.title
		if body != "" {
			text = h.title + "\n\n" + body
		}

		header := contextHeader(sectionPath)
		budget := s.cfg.ChunkSize - len(header)
		chunkType := schema.ChunkTypeSection
		if h.level > 1 {
			chunkType = schema.ChunkTypeSubSection
		}

		if len(text) <= budget {
			chunks = append(chunks, newChunk(doc, header+text, chunkType, sectionPath, h.level))
			continue
		}
		chunks = append(chunks, s.text.chunkText(doc, text, sectionPath, h.level)...)
	}

	return assignIndices(chunks)
}

// sectionStack mirrors the processor package's heading-stack convention
// (push before reading path, so a heading's own path includes itself).
type sectionStack struct {
	levels []int
	titles []string
}

func (s *sectionStack) push(level int, title string) {
	for len(s.levels) > 0 && s.levels[len(s.levels)-1] >= level {
		s.levels = s.levels[:len(s.levels)-1]
		s.titles = s.titles[:len(s.titles)-1]
	}
	s.levels = append(s.levels, level)
	s.titles = append(s.titles, title)
}

func (s *sectionStack) path() string {
	return strings.Join(s.titles, " / ")
}

var _ Strategy = (*StructuredChunkingStrategy)(nil)
