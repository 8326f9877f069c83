// Package signals loads detector output from sidecar files. Detectors
// run out of process (GLTR statistics, DetectGPT curvature probes,
// watermark tests, CWE scanners) and leave their scalars in a JSON
// document next to the input; this package merges those scalars into
// the per-segment signal sets the engine scores. How a detector
// computed its numbers is not this repository's concern.
package signals

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/provenalabs/mimesis/internal/model"
)

// SidecarSuffix is appended to a document path to locate its sidecar
const SidecarSuffix = ".signals.json"

// Entry is one segment's record in a sidecar. Every field is optional;
// a detector that failed or never ran simply omits its fields. Values
// are passed through as-is, the scoring engine clamps out-of-range
// inputs.
type Entry struct {
	GLTRTail    *float64 `json:"gltr_tail,omitempty"`    // Fraction of tokens outside the model's top-k head
	GLTRVar     *float64 `json:"gltr_var,omitempty"`     // Normalized variance of token rank entropy
	Curvature   *float64 `json:"curvature,omitempty"`    // DetectGPT probability curvature
	WatermarkP  *float64 `json:"watermark_p,omitempty"`  // Watermark detection p-value
	CWEPerKLOC  *float64 `json:"cwe_per_kloc,omitempty"` // Security finding density, already normalized
	CWEFindings *int     `json:"cwe_findings,omitempty"` // Raw finding count, converted using the segment's line count
}

// Sidecar maps segment ids to detector output. Ids that match no
// segment are ignored, segments with no record score from whatever
// other signals exist.
type Sidecar map[string]Entry

// SidecarPath returns the sidecar location for a document path
func SidecarPath(docPath string) string {
	return docPath + SidecarSuffix
}

// Load reads and parses a sidecar file. A missing file is not an
// error: analysis without detectors is a degraded run, not a failed
// one.
func Load(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Sidecar{}, nil
		}
		return nil, fmt.Errorf("read sidecar: %w", err)
	}

	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	if sc == nil {
		sc = Sidecar{}
	}
	return sc, nil
}

// LoadFor loads the sidecar sitting next to a document
func LoadFor(docPath string) (Sidecar, error) {
	return Load(SidecarPath(docPath))
}

// For assembles the signal set for a segment: the segment's own length
// and type plus whatever the sidecar recorded for its id. A raw
// cwe_findings count is converted to findings per KLOC; an explicit
// cwe_per_kloc wins when both are present.
func (s Sidecar) For(seg model.Segment) model.SignalSet {
	sig := model.SignalSet{
		LengthChars: seg.LengthChars,
		Type:        seg.Type,
	}

	entry, ok := s[seg.ID]
	if !ok {
		return sig
	}

	sig.GLTRTail = entry.GLTRTail
	sig.GLTRVar = entry.GLTRVar
	sig.Curvature = entry.Curvature
	sig.WatermarkP = entry.WatermarkP

	switch {
	case entry.CWEPerKLOC != nil:
		sig.CWEPerKLOC = entry.CWEPerKLOC
	case entry.CWEFindings != nil && seg.LineCount > 0:
		density := float64(*entry.CWEFindings) / (float64(seg.LineCount) / 1000.0)
		sig.CWEPerKLOC = &density
	}

	return sig
}
