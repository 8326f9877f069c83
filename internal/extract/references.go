package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/provenalabs/mimesis/internal/model"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)\s]+)\)`)
	bareURLRe      = regexp.MustCompile(`https?://[^\s<>"'` + "`" + `]+`)
	doiRe          = regexp.MustCompile(`\b10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)
	arxivRe        = regexp.MustCompile(`(?i)\barxiv:\s?(\d{4}\.\d{4,5}(?:v\d+)?)`)
)

// FindReferences extracts citation candidates from a segment's text:
// Markdown links, bare URLs, DOIs and arXiv identifiers. DOIs and
// arXiv IDs are rewritten to their resolver URLs so every candidate
// can be audited the same way. Duplicates within a segment collapse
// to the first occurrence.
func FindReferences(seg model.Segment) []model.Reference {
	var refs []model.Reference
	seen := make(map[string]bool)

	add := func(raw, u string) {
		u = strings.TrimRight(u, ".,;:)")
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		refs = append(refs, model.Reference{
			Raw:       raw,
			URL:       u,
			Kind:      classifyRef(u),
			SegmentID: seg.ID,
		})
	}

	for _, m := range markdownLinkRe.FindAllStringSubmatch(seg.Text, -1) {
		add(m[0], m[2])
	}

	// Strip Markdown link syntax before scanning for bare URLs, so the
	// same target is not captured twice with different trailing chars.
	stripped := markdownLinkRe.ReplaceAllString(seg.Text, "")
	for _, u := range bareURLRe.FindAllString(stripped, -1) {
		add(u, u)
	}

	for _, d := range doiRe.FindAllString(stripped, -1) {
		d = strings.TrimRight(d, ".,;:)")
		add(d, "https://doi.org/"+d)
	}

	for _, m := range arxivRe.FindAllStringSubmatch(seg.Text, -1) {
		add(m[0], "https://arxiv.org/abs/"+m[1])
	}

	return refs
}

// classifyRef assigns a reference kind from the resolver host
func classifyRef(rawURL string) model.RefKind {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.RefKindURL
	}
	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "doi.org" || host == "dx.doi.org" || strings.HasSuffix(host, ".doi.org"):
		return model.RefKindDOI
	case host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org"):
		return model.RefKindArXiv
	default:
		return model.RefKindURL
	}
}
