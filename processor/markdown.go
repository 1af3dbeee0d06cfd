package processor

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extastnodes "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// MarkdownProcessor extracts text and structure from Markdown via a
// full goldmark AST walk (GFM extensions enabled for table support),
// rather than the regex-based splitting the teacher's MarkdownReader
// used for its header-split mode.
type MarkdownProcessor struct {
	md goldmark.Markdown
}

func NewMarkdownProcessor() *MarkdownProcessor {
	return &MarkdownProcessor{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (p *MarkdownProcessor) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdown", ".mkd"}
}

func (p *MarkdownProcessor) ExtractText(path string) (string, error) {
	source, err := readSource(path)
	if err != nil {
		return "", err
	}
	return unifyWhitespace(string(source)), nil
}

func (p *MarkdownProcessor) SupportsStructuredExtraction() bool { return true }

func (p *MarkdownProcessor) ExtractStructure(path string) (*schema.StructuredDocument, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	doc, err := p.extractStructure(source)
	if err != nil {
		return nil, ragerr.New(ragerr.CorruptDocument, "failed to parse markdown structure: "+path, err)
	}
	return doc, nil
}

func readSource(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ragerr.New(ragerr.NotFound, "file not found: "+path, err)
		}
		return nil, ragerr.New(ragerr.DocumentProcessingError, "failed to read file", err)
	}
	return b, nil
}

func (p *MarkdownProcessor) extractStructure(source []byte) (*schema.StructuredDocument, error) {
	root := p.md.Parser().Parse(gmtext.NewReader(source))

	doc := &schema.StructuredDocument{}
	stack := &headingStack{}

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			level := node.Level
			if level > 3 {
				level = 3
			}
			headingText := inlineText(node, source)
			stack.push(level, headingText)
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:         headingElementType(level),
				Text:         headingText,
				HeadingLevel: level,
				SectionPath:  stack.path(),
			})
			if doc.Title == "" && node.Level == 1 {
				doc.Title = headingText
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph:
			if _, isListItem := n.Parent().(*ast.ListItem); isListItem {
				return ast.WalkContinue, nil
			}
			txt := inlineText(node, source)
			if txt != "" {
				doc.Elements = append(doc.Elements, schema.DocumentElement{
					Type:        schema.ElementParagraph,
					Text:        txt,
					SectionPath: stack.path(),
				})
			}
			return ast.WalkSkipChildren, nil

		case *ast.ListItem:
			list, _ := n.Parent().(*ast.List)
			ordered := list != nil && list.IsOrdered()
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementListItem,
				Text:        listItemText(node, source),
				SectionPath: stack.path(),
				Metadata:    map[string]any{"IsOrdered": ordered},
			})
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			lang := string(node.Language(source))
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementCodeBlock,
				Text:        blockLines(node, source),
				SectionPath: stack.path(),
				Metadata:    map[string]any{"Language": lang},
			})
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock:
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementCodeBlock,
				Text:        blockLines(node, source),
				SectionPath: stack.path(),
			})
			return ast.WalkSkipChildren, nil

		case *ast.Blockquote:
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementQuote,
				Text:        inlineText(node, source),
				SectionPath: stack.path(),
			})
			return ast.WalkSkipChildren, nil

		case *extastnodes.Table:
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementTable,
				Text:        renderTable(node, source),
				SectionPath: stack.path(),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// inlineText flattens a block node's inline descendants into plain
// text, honoring soft/hard line breaks.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				sb.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					sb.WriteByte(' ')
				}
			case *ast.String:
				sb.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func listItemText(n *ast.ListItem, source []byte) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if txt := inlineText(c, source); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}

func blockLines(n ast.Node, source []byte) string {
	lines := n.Lines()
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderTable renders a GFM table back to pipe-delimited text with a
// separator row, per the processor contract.
func renderTable(table *extastnodes.Table, source []byte) string {
	var rows [][]string
	for c := table.FirstChild(); c != nil; c = c.NextSibling() {
		switch row := c.(type) {
		case *extastnodes.TableHeader:
			rows = append(rows, tableRowText(row, source))
		case *extastnodes.TableRow:
			rows = append(rows, tableRowText(row, source))
		}
	}
	if len(rows) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
	sep := make([]string, len(rows[0]))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows[1:] {
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func tableRowText(row ast.Node, source []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, inlineText(c, source))
	}
	return cells
}
