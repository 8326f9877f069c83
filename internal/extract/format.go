package extract

import "strings"

// Reader converts one source format into segmentable text
type Reader interface {
	// Name returns the reader name for verbose output
	Name() string

	// CanHandle checks whether this reader fits the source
	CanHandle(source, contentType string) bool

	// Text converts raw content into plain segmentable text
	Text(content, source string) (string, error)
}

// Registry picks the reader for a fetched document
type Registry struct {
	readers  []Reader
	fallback Reader
}

// NewRegistry creates a registry with the built-in readers
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(&HTMLReader{})
	r.Register(&MarkdownReader{})
	r.fallback = &PlainReader{}
	return r
}

// Register adds a reader ahead of the plain-text fallback
func (r *Registry) Register(reader Reader) {
	r.readers = append(r.readers, reader)
}

// Find returns the first reader that can handle the source
func (r *Registry) Find(source, contentType string) Reader {
	for _, reader := range r.readers {
		if reader.CanHandle(source, contentType) {
			return reader
		}
	}
	return r.fallback
}

// HTMLReader flattens HTML pages through VisibleText
type HTMLReader struct{}

func (h *HTMLReader) Name() string { return "html" }

func (h *HTMLReader) CanHandle(source, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	lower := strings.ToLower(source)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

func (h *HTMLReader) Text(content, source string) (string, error) {
	return VisibleText(content, source)
}

// MarkdownReader passes Markdown through untouched: the segmenter
// understands fences and paragraphs natively
type MarkdownReader struct{}

func (m *MarkdownReader) Name() string { return "markdown" }

func (m *MarkdownReader) CanHandle(source, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "markdown") {
		return true
	}
	lower := strings.ToLower(source)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

func (m *MarkdownReader) Text(content, source string) (string, error) {
	return content, nil
}

// PlainReader is the fallback for everything else
type PlainReader struct{}

func (p *PlainReader) Name() string { return "plain" }

func (p *PlainReader) CanHandle(source, contentType string) bool { return true }

func (p *PlainReader) Text(content, source string) (string, error) {
	return content, nil
}
