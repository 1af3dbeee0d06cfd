package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/docrag/ragerr"
)

func TestRegistry_DispatchesCaseInsensitively(t *testing.T) {
	r := NewDefaultRegistry()

	p, err := r.For(".TXT")
	require.NoError(t, err)
	assert.IsType(t, &TextProcessor{}, p)

	p, err = r.For(".Md")
	require.NoError(t, err)
	assert.IsType(t, &MarkdownProcessor{}, p)
}

func TestRegistry_UnknownExtensionIsUnsupportedFormat(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.For(".doc")
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.UnsupportedFormat))
}

func TestRegistry_RegisterOverridesExtension(t *testing.T) {
	r := NewDefaultRegistry()
	custom := NewTextProcessor()
	r.Register(".md", custom)

	p, err := r.For(".md")
	require.NoError(t, err)
	assert.Same(t, custom, p)
}
