package score

import (
	"fmt"

	"github.com/provenalabs/mimesis/internal/model"
)

// contributions holds the per-slot suspicion inputs for one segment
// after polarity mapping and type gating
type contributions struct {
	gltr      float64
	detectgpt float64
	watermark float64
	citations float64
	cwe       float64
	short     float64

	present   int       // non-gated signals that were populated
	values    []float64 // their contributions, for the consistency check
	fragments []string  // rationale entries, in signal order
}

// mapSignals converts raw detector outputs into slot contributions.
// Polarity is fixed here so every contribution reads "higher = more
// likely generated" no matter which direction the raw signal points.
// Out-of-range inputs are clamped, never rejected.
func mapSignals(sig model.SignalSet, cweScale float64) contributions {
	c := contributions{fragments: []string{}}

	// The two GLTR statistics share one weight slot: the slot value is
	// the mean of whichever are present.
	var gltrParts []float64
	if sig.GLTRTail != nil {
		v := clamp01(1 - *sig.GLTRTail)
		gltrParts = append(gltrParts, v)
		c.observe(v)
		if v > materialityThreshold {
			c.fragments = append(c.fragments, fmt.Sprintf("GLTR: unusually few low-rank tokens (tail=%.2f)", *sig.GLTRTail))
		}
	}
	if sig.GLTRVar != nil {
		v := clamp01(1 - *sig.GLTRVar)
		gltrParts = append(gltrParts, v)
		c.observe(v)
		if v > materialityThreshold {
			c.fragments = append(c.fragments, fmt.Sprintf("GLTR: compressed token-rank variance (var=%.2f)", *sig.GLTRVar))
		}
	}
	if len(gltrParts) > 0 {
		c.gltr = mean(gltrParts)
	}

	if sig.Curvature != nil {
		v := clamp01(-*sig.Curvature)
		c.detectgpt = v
		c.observe(v)
		if v > materialityThreshold {
			c.fragments = append(c.fragments, fmt.Sprintf("DetectGPT: negative probability curvature (%.2f)", *sig.Curvature))
		}
	}

	if sig.WatermarkP != nil {
		v := clamp01(1 - *sig.WatermarkP)
		c.watermark = v
		c.observe(v)
		if v > materialityThreshold {
			c.fragments = append(c.fragments, fmt.Sprintf("Watermark: statistical watermark evidence (p=%.3f)", *sig.WatermarkP))
		}
	}

	// Citation validity is gated to non-code segments. Gated signals
	// contribute nothing anywhere: not to the score, not to the
	// rationale, not to the confidence count.
	if !sig.Type.IsCode() && sig.RefValidityRate != nil {
		v := clamp01(1 - *sig.RefValidityRate)
		c.citations = v
		c.observe(v)
		if v > materialityThreshold {
			c.fragments = append(c.fragments, fmt.Sprintf("Citations: %.0f%% of references failed to resolve", v*100))
		}
	}

	// Security density is gated to code segments.
	if sig.Type.IsCode() && sig.CWEPerKLOC != nil {
		v := clamp01(*sig.CWEPerKLOC / cweScale)
		c.cwe = v
		c.observe(v)
		if v > materialityThreshold {
			c.fragments = append(c.fragments, fmt.Sprintf("Code security: elevated CWE density (%.1f findings/KLOC)", *sig.CWEPerKLOC))
		}
	}

	// The length note is unconditional for short segments, material or not.
	if sig.LengthChars < MinReliableLength {
		c.short = 1
		c.fragments = append(c.fragments, ShortSegmentNote)
	}

	return c
}

func (c *contributions) observe(v float64) {
	c.present++
	c.values = append(c.values, v)
}
