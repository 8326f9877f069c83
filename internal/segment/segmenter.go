package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/provenalabs/mimesis/internal/model"
)

const (
	// DefaultMinChunk is the minimum prose block size in characters.
	// Adjacent paragraphs merge until they reach it so detector
	// statistics have enough text to work with.
	DefaultMinChunk = 600

	// inlineCodeRatio is the backtick-span density above which a prose
	// block is classified as mixed.
	inlineCodeRatio = 0.15

	// indentedCodeRatio is the fraction of indented lines above which a
	// prose block is classified as mixed.
	indentedCodeRatio = 0.30
)

// Segmenter splits plain text or Markdown into typed segments.
// Fenced code and display math become their own segments; everything
// else is paragraph prose, merged to a minimum size and reclassified
// as mixed when it carries heavy inline code.
type Segmenter struct {
	minChunk int
}

// NewSegmenter creates a segmenter. A non-positive minChunk falls back
// to DefaultMinChunk.
func NewSegmenter(minChunk int) *Segmenter {
	if minChunk <= 0 {
		minChunk = DefaultMinChunk
	}
	return &Segmenter{minChunk: minChunk}
}

// block is an untyped span under construction
type block struct {
	kind      model.SegmentType
	lines     []string
	startLine int // 1-based
	endLine   int
}

// Split segments a document. Segment IDs are assigned in document
// order as seg-001, seg-002, ... and line numbers are 1-based.
func (s *Segmenter) Split(text string) []model.Segment {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	var blocks []block
	var prose *block

	flushProse := func() {
		if prose == nil {
			return
		}
		for len(prose.lines) > 0 && prose.lines[len(prose.lines)-1] == "" {
			prose.lines = prose.lines[:len(prose.lines)-1]
		}
		if len(prose.lines) > 0 {
			blocks = append(blocks, *prose)
		}
		prose = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case isFence(trimmed):
			flushProse()
			fence := fenceMarker(trimmed)
			b := block{kind: model.SegmentCode, startLine: i + 1}
			j := i + 1
			for ; j < len(lines); j++ {
				if strings.HasPrefix(strings.TrimSpace(lines[j]), fence) {
					break
				}
				b.lines = append(b.lines, lines[j])
			}
			// An unterminated fence swallows the rest of the document.
			if j >= len(lines) {
				b.endLine = len(lines)
			} else {
				b.endLine = j + 1
			}
			blocks = append(blocks, b)
			i = j

		case trimmed == "$$" || strings.HasPrefix(trimmed, `\begin{`):
			flushProse()
			b := block{kind: model.SegmentLaTeX, startLine: i + 1}
			closer := func(t string) bool { return t == "$$" }
			if trimmed != "$$" {
				closer = func(t string) bool { return strings.HasPrefix(t, `\end{`) }
				b.lines = append(b.lines, line)
			}
			j := i + 1
			for ; j < len(lines); j++ {
				t := strings.TrimSpace(lines[j])
				if closer(t) {
					if t != "$$" {
						b.lines = append(b.lines, lines[j])
					}
					break
				}
				b.lines = append(b.lines, lines[j])
			}
			if j >= len(lines) {
				b.endLine = len(lines)
			} else {
				b.endLine = j + 1
			}
			blocks = append(blocks, b)
			i = j

		case trimmed == "":
			// Paragraph boundary: the block stays open until it reaches
			// minChunk, then the next paragraph starts fresh.
			if prose == nil {
				continue
			}
			if blockLength(prose) >= s.minChunk {
				flushProse()
			} else {
				// Preserve the break inside the merged block.
				prose.lines = append(prose.lines, "")
			}

		default:
			if prose == nil {
				prose = &block{kind: model.SegmentProse, startLine: i + 1}
			}
			prose.lines = append(prose.lines, line)
			prose.endLine = i + 1
		}
	}
	flushProse()

	segments := make([]model.Segment, 0, len(blocks))
	for _, b := range blocks {
		text := strings.Join(b.lines, "\n")
		kind := b.kind
		if kind == model.SegmentProse && looksMixed(b.lines, text) {
			kind = model.SegmentMixed
		}
		segments = append(segments, model.Segment{
			ID:          fmt.Sprintf("seg-%03d", len(segments)+1),
			Type:        kind,
			Text:        text,
			StartLine:   b.startLine,
			EndLine:     b.endLine,
			LengthChars: utf8.RuneCountInString(text),
			LineCount:   len(b.lines),
		})
	}
	return segments
}

// isFence reports whether a trimmed line opens or closes a code fence
func isFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// fenceMarker returns the marker that closes the fence this line opened
func fenceMarker(trimmed string) string {
	if strings.HasPrefix(trimmed, "~~~") {
		return "~~~"
	}
	return "```"
}

func blockLength(b *block) int {
	n := 0
	for _, l := range b.lines {
		n += utf8.RuneCountInString(l) + 1
	}
	return n
}

// looksMixed classifies prose that leans heavily on code without being
// fenced: dense inline backtick spans or runs of indented lines
func looksMixed(lines []string, text string) bool {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return false
	}

	inSpan := false
	spanRunes := 0
	for _, r := range text {
		if r == '`' {
			inSpan = !inSpan
			continue
		}
		if inSpan {
			spanRunes++
		}
	}
	if float64(spanRunes)/float64(total) > inlineCodeRatio {
		return true
	}

	indented := 0
	nonEmpty := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(l, "    ") || strings.HasPrefix(l, "\t") {
			indented++
		}
	}
	return nonEmpty > 0 && float64(indented)/float64(nonEmpty) > indentedCodeRatio
}
