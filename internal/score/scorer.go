package score

import (
	"github.com/provenalabs/mimesis/internal/model"
)

const (
	// MinReliableLength is the segment length in characters below which
	// detector statistics turn noisy and the short-segment penalty applies.
	MinReliableLength = 1000

	// ShortSegmentNote is the rationale entry appended whenever the
	// short-segment penalty fires.
	ShortSegmentNote = "Short segment (<1000 chars)"

	// DefaultCWEScale is the findings-per-KLOC density at which the
	// code-security contribution saturates at 1.0.
	DefaultCWEScale = 5.0

	// longSegmentChars is the length at which three mutually consistent
	// signals count as strong corroboration.
	longSegmentChars = 2000

	// materialityThreshold is the minimum contribution a signal needs
	// before it earns a rationale fragment.
	materialityThreshold = 0.5

	// consistencySpread is the maximum deviation from the mean
	// contribution allowed by the three-signal confidence promotion.
	consistencySpread = 0.25
)

// Engine computes composite provenance scores under a fixed weight
// vector. Construct once with NewEngine and share freely: the engine
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights  model.Weights // normalized, slots sum to 1
	cweScale float64
}

// NewEngine creates an engine from a weight vector, normalizing it so
// only the proportions matter. Returns ErrInvalidWeights when every
// slot is zero or negative.
func NewEngine(weights model.Weights) (*Engine, error) {
	return NewEngineWithScale(weights, DefaultCWEScale)
}

// NewEngineWithScale creates an engine with a custom CWE density
// saturation point. A non-positive scale falls back to DefaultCWEScale.
func NewEngineWithScale(weights model.Weights, cweScale float64) (*Engine, error) {
	norm, err := Normalize(weights)
	if err != nil {
		return nil, err
	}
	if cweScale <= 0 {
		cweScale = DefaultCWEScale
	}
	return &Engine{weights: norm, cweScale: cweScale}, nil
}

// Weights returns the normalized weight vector the engine scores with
func (e *Engine) Weights() model.Weights {
	return e.weights
}

// ScoreSegment computes the composite score for one segment's signals.
// A missing signal contributes zero through its full weight: the weight
// is never redistributed, so sparsely observed segments score lower
// than well-observed ones with the same evidence.
func (e *Engine) ScoreSegment(sig model.SignalSet) model.SegmentScore {
	c := mapSignals(sig, e.cweScale)

	total := e.weights.GLTR*c.gltr +
		e.weights.DetectGPT*c.detectgpt +
		e.weights.Watermark*c.watermark +
		e.weights.Citations*c.citations +
		e.weights.CWE*c.cwe +
		e.weights.ShortPenalty*c.short

	return model.SegmentScore{
		Score:      clamp01(total),
		Confidence: confidence(c.present, sig.LengthChars, c.values),
		Rationale:  c.fragments,
	}
}

// confidence maps corroboration to a label. Counting only non-gated
// signals keeps the label honest: a code segment with a citation rate
// attached gains nothing from it. Adding a signal never lowers the label.
func confidence(present, lengthChars int, contribs []float64) model.Confidence {
	switch {
	case present >= 4:
		return model.ConfidenceHigh
	case present == 3:
		// Three signals that agree on a long segment corroborate as
		// strongly as four scattered ones.
		if lengthChars >= longSegmentChars && consistent(contribs) {
			return model.ConfidenceHigh
		}
		return model.ConfidenceMedium
	case present == 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// consistent reports whether every contribution sits within
// consistencySpread of their mean
func consistent(contribs []float64) bool {
	if len(contribs) == 0 {
		return false
	}
	m := mean(contribs)
	for _, v := range contribs {
		d := v - m
		if d < 0 {
			d = -d
		}
		if d > consistencySpread {
			return false
		}
	}
	return true
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
