package model

// Weights assigns relative importance to each scoring slot.
// Only the proportions matter: the engine renormalizes whatever vector
// it is given, so {22, 22, 18, 25, 10, 3} behaves exactly like the defaults.
type Weights struct {
	GLTR         float64 `json:"gltr" yaml:"gltr" mapstructure:"gltr"`                            // GLTR token-rank statistics
	DetectGPT    float64 `json:"detectgpt" yaml:"detectgpt" mapstructure:"detectgpt"`             // DetectGPT curvature
	Watermark    float64 `json:"watermark" yaml:"watermark" mapstructure:"watermark"`             // Watermark p-value
	Citations    float64 `json:"citations" yaml:"citations" mapstructure:"citations"`             // Reference validity
	CWE          float64 `json:"cwe" yaml:"cwe" mapstructure:"cwe"`                               // Code security density
	ShortPenalty float64 `json:"short_penalty" yaml:"short_penalty" mapstructure:"short_penalty"` // Short-segment unreliability
}

// DefaultWeights returns the calibrated weight vector. The values sum
// to 1.00 so the defaults read directly as percentages.
func DefaultWeights() Weights {
	return Weights{
		GLTR:         0.22,
		DetectGPT:    0.22,
		Watermark:    0.18,
		Citations:    0.25,
		CWE:          0.10,
		ShortPenalty: 0.03,
	}
}

// Sum returns the total mass of the vector
func (w Weights) Sum() float64 {
	return w.GLTR + w.DetectGPT + w.Watermark + w.Citations + w.CWE + w.ShortPenalty
}
