package chunking

import (
	"testing"

	"github.com/aqua777/docrag/schema"
	"github.com/stretchr/testify/assert"
)

func TestContextHeader(t *testing.T) {
	assert.Equal(t, "", contextHeader(""))
	assert.Equal(t, "Context: Intro\n\n", contextHeader("Intro"))
}

func TestSplitWithOverlap_ShortSeedsOverlap(t *testing.T) {
	s := "aaaaaaaaaa" // 10 chars
	pieces := splitWithOverlap(s, 4, 2)
	if assert.GreaterOrEqual(t, len(pieces), 2) {
		for _, p := range pieces {
			assert.LessOrEqual(t, len(p), 4)
		}
	}
}

func TestSplitWithOverlap_FitsInOnePiece(t *testing.T) {
	pieces := splitWithOverlap("short text", 500, 100)
	assert.Equal(t, []string{"short text"}, pieces)
}

func TestAssignIndices(t *testing.T) {
	chunks := assignIndices([]schema.Chunk{{ChunkIndex: 9}, {ChunkIndex: 9}, {ChunkIndex: 9}})
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
}
