package processor

import (
	"os"
	"regexp"
	"strings"

	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// TextProcessor handles plain-text documents. Its structure extraction
// is a light heuristic: a title line followed by a `====`/`----`
// underline, blank-line-delimited paragraphs, fenced code blocks,
// `#`-headings, and `*`/`-`/`+` list items.
type TextProcessor struct{}

func NewTextProcessor() *TextProcessor { return &TextProcessor{} }

func (p *TextProcessor) SupportedExtensions() []string {
	return []string{".txt", ".text", ".log"}
}

func (p *TextProcessor) ExtractText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ragerr.New(ragerr.NotFound, "file not found: "+path, err)
		}
		return "", ragerr.New(ragerr.DocumentProcessingError, "failed to read text file", err)
	}
	return unifyWhitespace(string(b)), nil
}

func (p *TextProcessor) SupportsStructuredExtraction() bool { return true }

var (
	underlineRe  = regexp.MustCompile(`^(=+|-+)\s*$`)
	hashHeadRe   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	listItemRe   = regexp.MustCompile(`^\s*[*\-+]\s+(.+)$`)
	fenceRe      = regexp.MustCompile("^```")
)

func (p *TextProcessor) ExtractStructure(path string) (*schema.StructuredDocument, error) {
	text, err := p.ExtractText(path)
	if err != nil {
		return nil, err
	}
	return extractPlainTextStructure(text), nil
}

// extractPlainTextStructure is split out so tests can exercise the
// heuristic directly against an in-memory string.
func extractPlainTextStructure(text string) *schema.StructuredDocument {
	lines := strings.Split(text, "\n")
	doc := &schema.StructuredDocument{}
	stack := &headingStack{}

	var title string
	startIdx := 0
	if len(lines) >= 2 && strings.TrimSpace(lines[0]) != "" && underlineRe.MatchString(lines[1]) {
		title = strings.TrimSpace(lines[0])
		doc.Title = title
		startIdx = 2
	}

	var paraBuf []string
	var codeBuf []string
	inCode := false

	flushParagraph := func() {
		if len(paraBuf) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(paraBuf, "\n"))
		paraBuf = nil
		if text == "" {
			return
		}
		if m := listItemRe.FindStringSubmatch(text); m != nil {
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementListItem,
				Text:        m[1],
				SectionPath: stack.path(),
			})
			return
		}
		doc.Elements = append(doc.Elements, schema.DocumentElement{
			Type:        schema.ElementParagraph,
			Text:        text,
			SectionPath: stack.path(),
		})
	}

	for i := startIdx; i < len(lines); i++ {
		line := lines[i]

		if fenceRe.MatchString(strings.TrimSpace(line)) {
			if inCode {
				doc.Elements = append(doc.Elements, schema.DocumentElement{
					Type:        schema.ElementCodeBlock,
					Text:        strings.Join(codeBuf, "\n"),
					SectionPath: stack.path(),
				})
				codeBuf = nil
				inCode = false
			} else {
				flushParagraph()
				inCode = true
			}
			continue
		}
		if inCode {
			codeBuf = append(codeBuf, line)
			continue
		}

		if m := hashHeadRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			level := len(m[1])
			headingText := strings.TrimSpace(m[2])
			stack.push(level, headingText)
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:         headingElementType(level),
				Text:         headingText,
				HeadingLevel: level,
				SectionPath:  stack.path(),
			})
			continue
		}

		if strings.TrimSpace(line) == "" {
			flushParagraph()
			continue
		}

		if listItemRe.MatchString(line) {
			flushParagraph()
			m := listItemRe.FindStringSubmatch(line)
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementListItem,
				Text:        m[1],
				SectionPath: stack.path(),
			})
			continue
		}

		paraBuf = append(paraBuf, line)
	}
	flushParagraph()

	return doc
}

func headingElementType(level int) schema.ElementType {
	switch {
	case level <= 1:
		return schema.ElementHeading1
	case level == 2:
		return schema.ElementHeading2
	default:
		return schema.ElementHeading3
	}
}

// unifyWhitespace normalizes line endings and collapses trailing
// whitespace, matching the processor contract's "unified whitespace"
// requirement for extract_text.
func unifyWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}
