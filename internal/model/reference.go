package model

// RefKind classifies where a citation points
type RefKind string

const (
	RefKindDOI   RefKind = "doi"   // DOI resolver links (doi.org)
	RefKindArXiv RefKind = "arxiv" // arXiv abstracts and PDFs
	RefKindURL   RefKind = "url"   // Anything else reachable over HTTP
)

// Reference is a citation candidate extracted from a segment
type Reference struct {
	Raw       string  `json:"raw"`        // Citation text as it appeared in the document
	URL       string  `json:"url"`        // Resolvable form used for auditing
	Kind      RefKind `json:"kind"`       // Classification
	SegmentID string  `json:"segment_id"` // Segment the citation was found in
}

// RefCheck records the outcome of resolving one reference
type RefCheck struct {
	URL        string  `json:"url"`
	Kind       RefKind `json:"kind"`
	Resolved   bool    `json:"resolved"`              // Whether the reference answered with a usable status
	StatusCode int     `json:"status_code,omitempty"` // Last HTTP status observed, 0 if the request never completed
	FinalURL   string  `json:"final_url,omitempty"`   // Where redirects landed, when different from URL
	Error      string  `json:"error,omitempty"`       // Transport error, if any
	Cached     bool    `json:"cached,omitempty"`      // Whether the result came from cache
	Skipped    bool    `json:"skipped,omitempty"`     // Excluded from the validity rate (robots, cancellation)
}
