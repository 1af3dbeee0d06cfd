package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownProcessor_ExtractStructure(t *testing.T) {
	content := "# Intro\n\nHello.\n\n## Details\n\nThe answer is 42.\n"
	path := writeTemp(t, "doc.md", content)

	p := NewMarkdownProcessor()
	doc, err := p.ExtractStructure(path)
	require.NoError(t, err)
	require.Equal(t, "Intro", doc.Title)

	require.Len(t, doc.Elements, 4)
	assert.Equal(t, "Intro", doc.Elements[0].Text)
	assert.Equal(t, "Intro", doc.Elements[0].SectionPath)
	assert.Equal(t, 1, doc.Elements[0].HeadingLevel)

	assert.Equal(t, "Hello.", doc.Elements[1].Text)
	assert.Equal(t, "Intro", doc.Elements[1].SectionPath)

	assert.Equal(t, "Details", doc.Elements[2].Text)
	assert.Equal(t, "Intro / Details", doc.Elements[2].SectionPath)
	assert.Equal(t, 2, doc.Elements[2].HeadingLevel)

	assert.Contains(t, doc.Elements[3].Text, "42")
	assert.Equal(t, "Intro / Details", doc.Elements[3].SectionPath)
}

func TestMarkdownProcessor_CodeBlockAndList(t *testing.T) {
	content := "# Title\n\n- one\n- two\n\n```python\nprint(1)\n```\n"
	path := writeTemp(t, "doc.md", content)

	p := NewMarkdownProcessor()
	doc, err := p.ExtractStructure(path)
	require.NoError(t, err)

	var sawList, sawCode bool
	for _, el := range doc.Elements {
		if el.Type == "ListItem" {
			sawList = true
		}
		if el.Type == "CodeBlock" {
			sawCode = true
			assert.Contains(t, el.Text, "print(1)")
			assert.Equal(t, "python", el.Metadata["Language"])
		}
	}
	assert.True(t, sawList)
	assert.True(t, sawCode)
}
