package processor

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Overview</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>This is the body paragraph.</w:t></w:r>
    </w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>B</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>2</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

const testStylesXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:styleId="Heading1"><w:name w:val="heading 1"/></w:style>
</w:styles>`

func writeTestDocx(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range map[string]string{
		"word/document.xml": testDocumentXML,
		"word/styles.xml":   testStylesXML,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestWordProcessor_ExtractStructure(t *testing.T) {
	path := writeTestDocx(t)
	p := NewWordProcessor()

	doc, err := p.ExtractStructure(path)
	require.NoError(t, err)
	require.Len(t, doc.Elements, 3)

	assert.Equal(t, "Heading1", string(doc.Elements[0].Type))
	assert.Equal(t, "Overview", doc.Elements[0].Text)
	assert.Equal(t, "Overview", doc.Elements[0].SectionPath)

	assert.Equal(t, "Paragraph", string(doc.Elements[1].Type))
	assert.Equal(t, "This is the body paragraph.", doc.Elements[1].Text)

	assert.Equal(t, "Table", string(doc.Elements[2].Type))
	assert.Contains(t, doc.Elements[2].Text, "A")
	assert.Contains(t, doc.Elements[2].Text, "1")
}

func TestWordProcessor_ExtractText(t *testing.T) {
	path := writeTestDocx(t)
	p := NewWordProcessor()

	text, err := p.ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Overview")
	assert.Contains(t, text, "body paragraph")
}
