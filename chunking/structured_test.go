package chunking

import (
	"testing"

	"github.com/aqua777/docrag/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredChunkingStrategy_MarkdownScenario(t *testing.T) {
	cfg := config.Default()
	s := NewStructuredChunkingStrategy(cfg)

	doc := testDoc("# Intro\n\nHello.\n\n## Details\n\nThe answer is 42.")
	require.True(t, s.CanChunk(doc, nil))

	chunks := s.Chunk(doc, nil)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Intro", chunks[0].SectionPath)
	assert.Equal(t, 1, chunks[0].HeadingLevel)

	assert.Equal(t, "Intro / Details", chunks[1].SectionPath)
	assert.Equal(t, 2, chunks[1].HeadingLevel)
	assert.Contains(t, chunks[1].Content, "42")
}

func TestStructuredChunkingStrategy_PrefaceBeforeFirstHeading(t *testing.T) {
	cfg := config.Default()
	s := NewStructuredChunkingStrategy(cfg)

	doc := testDoc("Some preface text.\n\n# Heading\n\nBody text.")
	chunks := s.Chunk(doc, nil)
	require.Len(t, chunks, 2)

	assert.Equal(t, "", chunks[0].SectionPath)
	assert.Equal(t, "Some preface text.", chunks[0].Content)
	assert.Equal(t, "Heading", chunks[1].SectionPath)
}

func TestStructuredChunkingStrategy_NoHeadingsCannotChunk(t *testing.T) {
	s := NewStructuredChunkingStrategy(config.Default())
	assert.False(t, s.CanChunk(testDoc("no headings in this text at all"), nil))
}
