package chunking

import (
	"testing"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkingService_PrefersHierarchicalWhenStructuredAvailable(t *testing.T) {
	cfg := config.Default()
	svc := NewDefaultChunkingService(cfg, diagnostics.Noop())

	doc := testDoc("# Intro\n\nHello.\n\n## Details\n\nThe answer is 42.")
	structured := &schema.StructuredDocument{
		Elements: []schema.DocumentElement{
			{Type: schema.ElementHeading1, Text: "Intro", HeadingLevel: 1, SectionPath: "Intro"},
			{Type: schema.ElementParagraph, Text: "Hello.", SectionPath: "Intro"},
			{Type: schema.ElementHeading2, Text: "Details", HeadingLevel: 2, SectionPath: "Intro / Details"},
			{Type: schema.ElementParagraph, Text: "The answer is 42.", SectionPath: "Intro / Details"},
		},
	}

	chunks := svc.Chunk(doc, structured)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Intro", chunks[0].SectionPath)
}

func TestChunkingService_FallsBackToStructuredWithoutElements(t *testing.T) {
	cfg := config.Default()
	svc := NewDefaultChunkingService(cfg, diagnostics.Noop())

	doc := testDoc("# Heading\n\nBody text with no structured document.")
	chunks := svc.Chunk(doc, &schema.StructuredDocument{})

	require.NotEmpty(t, chunks)
	assert.Equal(t, "Heading", chunks[0].SectionPath)
}

func TestChunkingService_FallsBackToTextWhenNothingElseApplies(t *testing.T) {
	cfg := config.Default()
	svc := NewDefaultChunkingService(cfg, diagnostics.Noop())

	doc := testDoc("Just a plain paragraph with no headings or code.")
	chunks := svc.Chunk(doc, &schema.StructuredDocument{})

	require.Len(t, chunks, 1)
	assert.Equal(t, schema.ChunkTypeParagraphGroup, chunks[0].ChunkType)
}
