package processor

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// PDFProcessor extracts text and, best-effort, structure from PDF
// files via ledongthuc/pdf, grounded on the teacher's PDFReader.
type PDFProcessor struct{}

func NewPDFProcessor() *PDFProcessor { return &PDFProcessor{} }

func (p *PDFProcessor) SupportedExtensions() []string { return []string{".pdf"} }

// ExtractText separates pages with "--- Page N ---", matching the
// processor contract.
func (p *PDFProcessor) ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", wrapPDFOpenErr(path, err)
	}
	defer f.Close()

	var sb strings.Builder
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			sb.WriteString(fmt.Sprintf("[Error processing page %d]\n", pageNum))
			continue
		}
		sb.WriteString(fmt.Sprintf("--- Page %d ---\n", pageNum))
		sb.WriteString(unifyWhitespace(strings.TrimSpace(text)))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *PDFProcessor) SupportsStructuredExtraction() bool { return true }

var sentenceEndRe = regexp.MustCompile(`[.?!:]\s*$`)

// pdfTextRun is one positioned text fragment as reported by the
// library's low-level Content() API.
type pdfTextRun struct {
	x, y, fontSize float64
	s              string
}

// pdfLine is one paragraph: consecutive visual rows (runs grouped by
// Y-proximity within 0.7x font size, ordered left to right by X) that
// share X-alignment and font size, joined with spaces.
type pdfLine struct {
	fontSize float64
	text     string
}

// ExtractStructure groups positioned text into paragraphs by
// Y-proximity and X-alignment, classifies a paragraph as a heading
// when its font size sits at least 0.5 standard deviations above the
// document's mean, it's short, and doesn't end in sentence
// punctuation, then ranks heading font sizes into levels 1..3.
func (p *PDFProcessor) ExtractStructure(path string) (*schema.StructuredDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, wrapPDFOpenErr(path, err)
	}
	defer f.Close()

	var allLines []pdfLine
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		lines, err := linesForPage(page)
		if err != nil {
			allLines = append(allLines, pdfLine{text: fmt.Sprintf("[Error processing page %d]", pageNum)})
			continue
		}
		allLines = append(allLines, lines...)
	}

	return classifyLines(allLines), nil
}

// linesForPage groups a page's positioned text runs into lines, then
// merges adjacent lines with matching X-alignment into paragraphs.
func linesForPage(page pdf.Page) ([]pdfLine, error) {
	content := page.Content()

	var runs []pdfTextRun
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		runs = append(runs, pdfTextRun{x: t.X, y: t.Y, fontSize: t.FontSize, s: t.S})
	}
	if len(runs) == 0 {
		return nil, nil
	}

	// PDF Y coordinates increase upward; sort top-to-bottom, then
	// left-to-right within a visual row.
	sort.SliceStable(runs, func(i, j int) bool {
		if math.Abs(runs[i].y-runs[j].y) > 1 {
			return runs[i].y > runs[j].y
		}
		return runs[i].x < runs[j].x
	})

	var rows [][]pdfTextRun
	for _, r := range runs {
		if len(rows) == 0 {
			rows = append(rows, []pdfTextRun{r})
			continue
		}
		last := rows[len(rows)-1]
		threshold := 0.7 * last[0].fontSize
		if threshold <= 0 {
			threshold = 3
		}
		if math.Abs(last[0].y-r.y) <= threshold {
			rows[len(rows)-1] = append(last, r)
		} else {
			rows = append(rows, []pdfTextRun{r})
		}
	}

	var lines []pdfLine
	var paraBuf strings.Builder
	var paraFont float64
	var paraX float64
	flush := func() {
		text := strings.TrimSpace(paraBuf.String())
		if text != "" {
			lines = append(lines, pdfLine{fontSize: paraFont, text: text})
		}
		paraBuf.Reset()
	}

	for i, row := range rows {
		var rowText strings.Builder
		var rowFont float64
		rowX := row[0].x
		for _, r := range row {
			rowText.WriteString(r.s)
			if r.fontSize > rowFont {
				rowFont = r.fontSize
			}
		}
		sameParagraph := i > 0 && math.Abs(rowX-paraX) < 2 && math.Abs(rowFont-paraFont) < 0.5
		if !sameParagraph {
			flush()
			paraFont = rowFont
			paraX = rowX
		}
		if paraBuf.Len() > 0 {
			paraBuf.WriteString(" ")
		}
		paraBuf.WriteString(strings.TrimSpace(rowText.String()))
	}
	flush()

	return lines, nil
}

func classifyLines(lines []pdfLine) *schema.StructuredDocument {
	doc := &schema.StructuredDocument{}
	if len(lines) == 0 {
		return doc
	}

	mean, stddev := fontStats(lines)
	levels := headingLevelsBySize(lines, mean, stddev)

	stack := &headingStack{}
	for _, l := range lines {
		if strings.HasPrefix(l.text, "[Error processing page") {
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:        schema.ElementParagraph,
				Text:        l.text,
				SectionPath: stack.path(),
			})
			continue
		}
		if level, isHeading := levels[l.fontSize]; isHeading && isHeadingCandidate(l.text) {
			stack.push(level, l.text)
			doc.Elements = append(doc.Elements, schema.DocumentElement{
				Type:         headingElementType(level),
				Text:         l.text,
				HeadingLevel: level,
				SectionPath:  stack.path(),
			})
			continue
		}
		doc.Elements = append(doc.Elements, schema.DocumentElement{
			Type:        schema.ElementParagraph,
			Text:        l.text,
			SectionPath: stack.path(),
		})
	}
	return doc
}

func isHeadingCandidate(text string) bool {
	return len(text) <= 120 && !sentenceEndRe.MatchString(text)
}

func fontStats(lines []pdfLine) (mean, stddev float64) {
	if len(lines) == 0 {
		return 0, 0
	}
	var sum float64
	for _, l := range lines {
		sum += l.fontSize
	}
	mean = sum / float64(len(lines))

	var variance float64
	for _, l := range lines {
		d := l.fontSize - mean
		variance += d * d
	}
	variance /= float64(len(lines))
	stddev = math.Sqrt(variance)
	return mean, stddev
}

// headingLevelsBySize buckets font sizes that clear the heading
// threshold (mean + 0.5*stddev) into up to three descending ranks.
func headingLevelsBySize(lines []pdfLine, mean, stddev float64) map[float64]int {
	threshold := mean + 0.5*stddev
	sizeSet := map[float64]bool{}
	for _, l := range lines {
		if l.fontSize >= threshold && isHeadingCandidate(l.text) {
			sizeSet[l.fontSize] = true
		}
	}
	sizes := make([]float64, 0, len(sizeSet))
	for s := range sizeSet {
		sizes = append(sizes, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	levels := map[float64]int{}
	for i, s := range sizes {
		level := i + 1
		if level > 3 {
			level = 3
		}
		levels[s] = level
	}
	return levels
}

func wrapPDFOpenErr(path string, err error) error {
	return ragerr.New(ragerr.CorruptDocument, "failed to open PDF: "+path, err)
}
