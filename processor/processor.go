// Package processor implements the document-processor registry:
// per-format text and structure extraction, dispatched by file
// extension.
package processor

import (
	"strings"
	"sync"

	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// Processor extracts text and, optionally, structure from a document
// format. Strategy dispatch replaces an inheritance hierarchy: each
// processor is a value implementing this small capability interface.
type Processor interface {
	SupportedExtensions() []string
	ExtractText(path string) (string, error)
	SupportsStructuredExtraction() bool
	ExtractStructure(path string) (*schema.StructuredDocument, error)
}

// Registry maps each extension, case-insensitively, to one processor;
// when an extension is registered twice, the later Register call
// replaces the earlier processor. Register is a runtime-extensible hook beyond a
// fixed compile-time list, matching the teacher readers' capability
// registration style (ReaderMetadata.SupportedExtensions).
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]Processor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: map[string]Processor{}}
}

// NewDefaultRegistry builds a registry pre-populated with the four
// built-in processors (Text, Markdown, PDF, Word).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []Processor{
		NewTextProcessor(),
		NewMarkdownProcessor(),
		NewPDFProcessor(),
		NewWordProcessor(),
	} {
		for _, ext := range p.SupportedExtensions() {
			r.Register(ext, p)
		}
	}
	return r
}

// Register claims ext for p, overwriting any previous claim.
func (r *Registry) Register(ext string, p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExt[strings.ToLower(ext)] = p
}

// For returns the processor claiming ext, or UnsupportedFormat.
func (r *Registry) For(ext string) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[strings.ToLower(ext)]
	if !ok {
		return nil, ragerr.New(ragerr.UnsupportedFormat, "no processor registered for extension "+ext, nil)
	}
	return p, nil
}
