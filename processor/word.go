package processor

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// WordProcessor extracts text and structure from .docx files via a
// direct zip+XML walk (kept stdlib rather than a third-party docx
// library: classifying headings needs paragraph style IDs, the
// outline-level property, and raw run formatting that high-level docx
// libraries don't expose), grounded on the teacher's DocxReader.
type WordProcessor struct{}

func NewWordProcessor() *WordProcessor { return &WordProcessor{} }

func (p *WordProcessor) SupportedExtensions() []string { return []string{".docx"} }

func (p *WordProcessor) ExtractText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", wrapDocxOpenErr(path, err)
	}
	defer zr.Close()

	doc, err := parseDocumentXML(&zr.Reader)
	if err != nil {
		return "", ragerr.New(ragerr.CorruptDocument, "failed to parse word/document.xml: "+path, err)
	}

	var parts []string
	for _, el := range flattenBody(doc) {
		switch v := el.(type) {
		case docxParagraph:
			if t := paragraphText(&v); t != "" {
				parts = append(parts, t)
			}
		case docxTable:
			if t := tableTSV(&v); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return unifyWhitespace(strings.Join(parts, "\n\n")), nil
}

func (p *WordProcessor) SupportsStructuredExtraction() bool { return true }

func (p *WordProcessor) ExtractStructure(path string) (*schema.StructuredDocument, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, wrapDocxOpenErr(path, err)
	}
	defer zr.Close()

	doc, err := parseDocumentXML(&zr.Reader)
	if err != nil {
		return nil, ragerr.New(ragerr.CorruptDocument, "failed to parse word/document.xml: "+path, err)
	}

	styles := parseStyles(&zr.Reader)
	defaultFontSize := estimateDefaultFontSize(doc)

	out := &schema.StructuredDocument{}
	stack := &headingStack{}

	for _, el := range flattenBody(doc) {
		switch v := el.(type) {
		case docxParagraph:
			text := paragraphText(&v)
			if text == "" {
				continue
			}
			if level, ok := classifyHeading(&v, styles, defaultFontSize); ok {
				stack.push(level, text)
				out.Elements = append(out.Elements, schema.DocumentElement{
					Type:         headingElementType(level),
					Text:         text,
					HeadingLevel: level,
					SectionPath:  stack.path(),
				})
				continue
			}
			if numID, ok := listNumID(&v); ok {
				out.Elements = append(out.Elements, schema.DocumentElement{
					Type:        schema.ElementListItem,
					Text:        text,
					SectionPath: stack.path(),
					Metadata:    map[string]any{"NumID": numID},
				})
				continue
			}
			out.Elements = append(out.Elements, schema.DocumentElement{
				Type:        schema.ElementParagraph,
				Text:        text,
				SectionPath: stack.path(),
			})
		case docxTable:
			out.Elements = append(out.Elements, schema.DocumentElement{
				Type:        schema.ElementTable,
				Text:        tableMarkdown(&v),
				SectionPath: stack.path(),
			})
		}
	}
	return out, nil
}

// --- word/document.xml model ---

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

// docxBody decodes word/document.xml's <w:body> preserving the
// document order of mixed <w:p>/<w:tbl> siblings, which a plain
// struct-tag mapping (each sibling type into its own slice field)
// cannot express.
type docxBody struct {
	Children []bodyElement
}

func (b *docxBody) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var para docxParagraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				b.Children = append(b.Children, para)
			case "tbl":
				var tbl docxTable
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Children = append(b.Children, tbl)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

type docxParagraph struct {
	Runs       []docxRun      `xml:"r"`
	Properties *docxParaProps `xml:"pPr"`
	Hyperlinks []docxRun      `xml:"hyperlink>r"`
}

type docxParaProps struct {
	Style      *docxVal `xml:"pStyle"`
	OutlineLvl *docxVal `xml:"outlineLvl"`
	NumPr      *docxNum `xml:"numPr"`
}

type docxNum struct {
	NumID *docxVal `xml:"numId"`
}

type docxVal struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Text       []docxText     `xml:"t"`
	Tab        []struct{}     `xml:"tab"`
	Properties *docxRunProps  `xml:"rPr"`
}

type docxRunProps struct {
	Bold *struct{} `xml:"b"`
	Size *docxVal  `xml:"sz"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTable struct {
	Rows []docxTableRow `xml:"tr"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"tc"`
}

type docxTableCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

// bodyElement is either a docxParagraph or docxTable, in document
// order.
type bodyElement any

func parseDocumentXML(zr *zip.Reader) (*docxDocument, error) {
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	return nil, ragerr.New(ragerr.CorruptDocument, "word/document.xml not found in docx", nil)
}

// flattenBody returns the body's children in document order.
func flattenBody(doc *docxDocument) []bodyElement {
	return doc.Body.Children
}

func paragraphText(p *docxParagraph) string {
	var parts []string
	for _, r := range p.Runs {
		for _, t := range r.Text {
			parts = append(parts, t.Content)
		}
		for range r.Tab {
			parts = append(parts, "\t")
		}
	}
	for _, r := range p.Hyperlinks {
		for _, t := range r.Text {
			parts = append(parts, t.Content)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func tableTSV(t *docxTable) string {
	var rows []string
	for _, row := range t.Rows {
		var cells []string
		for _, cell := range row.Cells {
			var cellParts []string
			for _, p := range cell.Paragraphs {
				if txt := paragraphText(&p); txt != "" {
					cellParts = append(cellParts, txt)
				}
			}
			cells = append(cells, strings.Join(cellParts, " "))
		}
		rows = append(rows, strings.Join(cells, "\t"))
	}
	return strings.Join(rows, "\n")
}

func tableMarkdown(t *docxTable) string {
	if len(t.Rows) == 0 {
		return ""
	}
	rowText := func(row docxTableRow) []string {
		var cells []string
		for _, cell := range row.Cells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if txt := paragraphText(&p); txt != "" {
					parts = append(parts, txt)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		return cells
	}
	header := rowText(t.Rows[0])
	var sb strings.Builder
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range t.Rows[1:] {
		sb.WriteString("| " + strings.Join(rowText(row), " | ") + " |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func listNumID(p *docxParagraph) (string, bool) {
	if p.Properties == nil || p.Properties.NumPr == nil || p.Properties.NumPr.NumID == nil {
		return "", false
	}
	return p.Properties.NumPr.NumID.Val, true
}

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*(\d)$`)

// classifyHeading tries, in order: explicit style ID, outline-level
// property, then a bold+oversized-run formatting heuristic.
func classifyHeading(p *docxParagraph, styles map[string]string, defaultFontSize float64) (int, bool) {
	if p.Properties != nil && p.Properties.Style != nil {
		styleID := p.Properties.Style.Val
		name := styles[styleID]
		if name == "" {
			name = styleID
		}
		if strings.EqualFold(name, "Title") {
			return 1, true
		}
		if strings.EqualFold(name, "Subtitle") {
			return 2, true
		}
		if m := headingStyleRe.FindStringSubmatch(name); m != nil {
			level, _ := strconv.Atoi(m[1])
			if level < 1 {
				level = 1
			}
			if level > 3 {
				level = 3
			}
			return level, true
		}
	}

	if p.Properties != nil && p.Properties.OutlineLvl != nil {
		lvl, err := strconv.Atoi(p.Properties.OutlineLvl.Val)
		if err == nil {
			level := lvl + 1
			if level > 3 {
				level = 3
			}
			return level, true
		}
	}

	text := paragraphText(p)
	if len(text) >= 150 {
		return 0, false
	}
	boldRuns, maxSize := 0, 0.0
	totalRuns := 0
	for _, r := range p.Runs {
		if len(r.Text) == 0 {
			continue
		}
		totalRuns++
		if r.Properties == nil {
			continue
		}
		if r.Properties.Bold != nil {
			boldRuns++
		}
		if r.Properties.Size != nil {
			if sz, err := strconv.ParseFloat(r.Properties.Size.Val, 64); err == nil {
				halfPoints := sz / 2
				if halfPoints > maxSize {
					maxSize = halfPoints
				}
			}
		}
	}
	if totalRuns > 0 && boldRuns == totalRuns && maxSize > defaultFontSize+2 {
		return 2, true
	}
	return 0, false
}

// estimateDefaultFontSize approximates the document's body text size
// from the most common explicit run size, falling back to 11pt (the
// common Word default) when no run specifies one.
func estimateDefaultFontSize(doc *docxDocument) float64 {
	counts := map[float64]int{}
	for _, child := range doc.Body.Children {
		para, ok := child.(docxParagraph)
		if !ok {
			continue
		}
		for _, r := range para.Runs {
			if r.Properties == nil || r.Properties.Size == nil {
				continue
			}
			if sz, err := strconv.ParseFloat(r.Properties.Size.Val, 64); err == nil {
				counts[sz/2]++
			}
		}
	}
	best, bestCount := 11.0, 0
	for size, count := range counts {
		if count > bestCount {
			best, bestCount = size, count
		}
	}
	return best
}

func parseStyles(zr *zip.Reader) map[string]string {
	styles := map[string]string{}
	for _, f := range zr.File {
		if f.Name != "word/styles.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return styles
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return styles
		}
		var doc struct {
			Styles []struct {
				ID   string `xml:"styleId,attr"`
				Name struct {
					Val string `xml:"val,attr"`
				} `xml:"name"`
			} `xml:"style"`
		}
		if err := xml.Unmarshal(content, &doc); err != nil {
			return styles
		}
		for _, s := range doc.Styles {
			styles[s.ID] = s.Name.Val
		}
	}
	return styles
}

func wrapDocxOpenErr(path string, err error) error {
	return ragerr.New(ragerr.CorruptDocument, "failed to open docx: "+path, err)
}
