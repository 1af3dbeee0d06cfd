package chunking

import (
	"regexp"
	"strings"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/schema"
	"github.com/dlclark/regexp2"
)

// fencedBlockRe matches a Markdown fenced code block and captures the
// optional language tag and the body.
var fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)[ \\t]*\\r?\\n(.*?)```")

// declOpenerRe finds a function/type/class declaration opener that
// ends in an opening brace. The negative lookbehind keeps it from
// matching "func" or "class" appearing mid-identifier (e.g. inside
// "myFuncName"), something regexp cannot express.
var declOpenerRe = regexp2.MustCompile(`(?<![\w.])(func|class|struct|interface|type|def)\b[^{\n]*\{`, regexp2.None)

// CodeChunkingStrategy applies when a document looks like it carries
// source code: Markdown fenced blocks, or brace-delimited declarations
// detected outside of them. Each fenced block or brace-matched
// declaration becomes its own chunk; everything between matches is
// emitted verbatim as CodeText. A piece that overflows ChunkSize is
// split line by line rather than mid-line, so a single line longer
// than ChunkSize becomes its own oversized chunk tagged with
// schema.LongLineSuffix.
type CodeChunkingStrategy struct {
	cfg config.Config
}

func NewCodeChunkingStrategy(cfg config.Config) *CodeChunkingStrategy {
	return &CodeChunkingStrategy{cfg: cfg}
}

func (s *CodeChunkingStrategy) Name() string { return "Code" }

func (s *CodeChunkingStrategy) CanChunk(doc *schema.Document, structured *schema.StructuredDocument) bool {
	if fencedBlockRe.MatchString(doc.Content) {
		return true
	}
	m, err := declOpenerRe.FindStringMatch(doc.Content)
	return err == nil && m != nil
}

// codeSpan is a contiguous run of the document classified as one kind
// of code unit.
type codeSpan struct {
	start, end int // rune offsets into the document content
	chunkType  string
	language   string
}

func (s *CodeChunkingStrategy) Chunk(doc *schema.Document, structured *schema.StructuredDocument) []schema.Chunk {
	runes := []rune(doc.Content)
	spans := s.findCodeSpans(doc.Content, runes)
	if len(spans) == 0 {
		return nil
	}

	var chunks []schema.Chunk
	cursor := 0
	for _, span := range spans {
		if span.start > cursor {
			chunks = append(chunks, s.emit(doc, runes[cursor:span.start], schema.ChunkTypeCodeText, "")...)
		}
		chunks = append(chunks, s.emit(doc, runes[span.start:span.end], span.chunkType, span.language)...)
		cursor = span.end
	}
	if cursor < len(runes) {
		chunks = append(chunks, s.emit(doc, runes[cursor:], schema.ChunkTypeCodeText, "")...)
	}

	return assignIndices(chunks)
}

// findCodeSpans locates fenced blocks first, then scans the remaining
// text for declaration openers, and returns every span merged and
// ordered by position.
func (s *CodeChunkingStrategy) findCodeSpans(content string, runes []rune) []codeSpan {
	var spans []codeSpan

	fenced := fencedBlockRe.FindAllStringSubmatchIndex(content, -1)
	covered := make([]bool, len(runes)+1)
	byteToRune := byteOffsetToRuneOffset(content)

	for _, loc := range fenced {
		start := byteToRune[loc[0]]
		end := byteToRune[loc[1]]
		lang := ""
		if loc[2] >= 0 {
			lang = content[loc[2]:loc[3]]
		}
		spans = append(spans, codeSpan{start: start, end: end, chunkType: schema.ChunkTypeCodeBlock, language: lang})
		for i := start; i < end && i < len(covered); i++ {
			covered[i] = true
		}
	}

	searchFrom := 0
	for searchFrom < len(runes) {
		remainder := string(runes[searchFrom:])
		m, err := declOpenerRe.FindStringMatch(remainder)
		if err != nil || m == nil {
			break
		}
		matchStart := searchFrom + m.Index
		braceOffset := m.Index + m.Length - 1 // index of the opening '{' within remainder
		if matchStart >= len(runes) || covered[matchStart] {
			searchFrom = matchStart + 1
			continue
		}
		closeOffset := matchBrace([]rune(remainder), braceOffset)
		var declEnd int
		if closeOffset < 0 {
			declEnd = len(runes) // unterminated: run to end of document
		} else {
			declEnd = searchFrom + closeOffset + 1
		}
		if !covered[matchStart] {
			spans = append(spans, codeSpan{start: matchStart, end: declEnd, chunkType: schema.ChunkTypeDefinition})
			for i := matchStart; i < declEnd && i < len(covered); i++ {
				covered[i] = true
			}
		}
		searchFrom = declEnd
		if searchFrom <= matchStart {
			searchFrom = matchStart + 1
		}
	}

	sortSpans(spans)
	return spans
}

// matchBrace walks forward from the index of an opening brace,
// tracking nesting depth and skipping over line comments, block
// comments, string literals, and char literals, and returns the index
// of the matching closing brace, or -1 if the braces never balance.
func matchBrace(runes []rune, openIdx int) int {
	depth := 0
	i := openIdx
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			i++
			if depth == 0 {
				return i - 1
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
		case c == '"' || c == '\'' || c == '`':
			quote := c
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				i++
			}
			i++
		default:
			i++
		}
	}
	return -1
}

func sortSpans(spans []codeSpan) {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].start < spans[j-1].start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}
}

// byteOffsetToRuneOffset builds a lookup from byte index to rune
// index for s, so regexp's byte-based submatch indices can be
// translated into the rune offsets the rest of this strategy works in.
func byteOffsetToRuneOffset(s string) []int {
	table := make([]int, len(s)+1)
	runeIdx := 0
	for byteIdx, r := range s {
		for b := 0; b < len(string(r)); b++ {
			table[byteIdx+b] = runeIdx
		}
		runeIdx++
	}
	table[len(s)] = runeIdx
	return table
}

// emit turns one classified run of runes into one or more chunks,
// splitting on line boundaries (never mid-line) when it overflows
// ChunkSize.
func (s *CodeChunkingStrategy) emit(doc *schema.Document, runes []rune, chunkType, language string) []schema.Chunk {
	text := strings.TrimSpace(string(runes))
	if text == "" {
		return nil
	}
	if len(text) <= s.cfg.ChunkSize {
		c := newChunk(doc, text, chunkType, "", 0)
		if language != "" {
			c.Source = doc.Name + " (" + language + ")"
		}
		return []schema.Chunk{c}
	}

	lines := strings.Split(text, "\n")
	var chunks []schema.Chunk
	var buf strings.Builder
	flush := func() {
		content := strings.TrimSpace(buf.String())
		buf.Reset()
		if content == "" {
			return
		}
		chunks = append(chunks, newChunk(doc, content, chunkType, "", 0))
	}
	for _, line := range lines {
		if len(line) > s.cfg.ChunkSize {
			flush()
			c := newChunk(doc, line, chunkType+schema.LongLineSuffix, "", 0)
			chunks = append(chunks, c)
			continue
		}
		if buf.Len()+len(line)+1 > s.cfg.ChunkSize {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
	}
	flush()
	return chunks
}

var _ Strategy = (*CodeChunkingStrategy)(nil)
