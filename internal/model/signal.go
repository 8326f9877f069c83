package model

// SegmentType classifies the content of a document segment
type SegmentType string

const (
	SegmentProse SegmentType = "prose" // Natural-language paragraphs
	SegmentCode  SegmentType = "code"  // Fenced or indented source code
	SegmentLaTeX SegmentType = "latex" // Display math and LaTeX environments
	SegmentMixed SegmentType = "mixed" // Prose with heavy inline code
)

// IsCode reports whether code-only signals apply to this segment type
func (t SegmentType) IsCode() bool {
	return t == SegmentCode
}

// SignalSet carries the detector outputs for a single segment.
// Every detector field is optional: nil means the detector did not run
// or produced nothing, and the engine treats that as "no information",
// never as an error.
type SignalSet struct {
	GLTRTail        *float64 `json:"gltr_tail,omitempty"`         // Fraction of tokens outside the model's top ranks (lower = more suspicious)
	GLTRVar         *float64 `json:"gltr_var,omitempty"`          // Normalized token-rank variance (lower = more suspicious)
	Curvature       *float64 `json:"curvature,omitempty"`         // DetectGPT log-probability curvature (negative = more suspicious)
	WatermarkP      *float64 `json:"watermark_p,omitempty"`       // Watermark hypothesis-test p-value (lower = more suspicious)
	RefValidityRate *float64 `json:"ref_validity_rate,omitempty"` // Fraction of citations that resolve (prose/latex/mixed only)
	CWEPerKLOC      *float64 `json:"cwe_per_kloc,omitempty"`      // Security findings per 1000 lines (code only)

	LengthChars int         `json:"length_chars"` // Segment length in characters
	Type        SegmentType `json:"type"`         // Segment classification
}

// PresentCount returns how many detector signals are populated,
// ignoring type gating
func (s SignalSet) PresentCount() int {
	n := 0
	for _, p := range []*float64{s.GLTRTail, s.GLTRVar, s.Curvature, s.WatermarkP, s.RefValidityRate, s.CWEPerKLOC} {
		if p != nil {
			n++
		}
	}
	return n
}

// Float returns a pointer to v, for building signal sets inline
func Float(v float64) *float64 {
	return &v
}

// Segment is a contiguous, typed span of a source document
type Segment struct {
	ID          string      `json:"id"`           // Stable identifier within the document ("seg-001", ...)
	Type        SegmentType `json:"type"`         // Content classification
	Text        string      `json:"-"`            // Raw text, excluded from reports
	StartLine   int         `json:"start_line"`   // 1-based first line in the source
	EndLine     int         `json:"end_line"`     // 1-based last line in the source
	LengthChars int         `json:"length_chars"` // Character count of Text
	LineCount   int         `json:"line_count"`   // Line count, used for per-KLOC densities
}

// Ref returns the lightweight reference used for document aggregation
func (s Segment) Ref() SegmentRef {
	return SegmentRef{ID: s.ID, LengthChars: s.LengthChars}
}

// SegmentRef pairs a segment identifier with its length so the
// aggregator can weight scores without holding segment text
type SegmentRef struct {
	ID          string `json:"id"`
	LengthChars int    `json:"length_chars"`
}
