package score

import (
	"errors"

	"github.com/provenalabs/mimesis/internal/model"
)

// ErrInvalidWeights is returned when every slot of a weight vector is
// zero or negative, leaving nothing to score with.
var ErrInvalidWeights = errors.New("invalid weights: all slots zero or negative")

// Normalize scales a weight vector so its six slots sum to 1.
// Negative slots are treated as zero rather than rejected, so a config
// can disable one signal without tripping an error. Only a vector with
// no positive mass at all fails.
func Normalize(w model.Weights) (model.Weights, error) {
	n := model.Weights{
		GLTR:         maxZero(w.GLTR),
		DetectGPT:    maxZero(w.DetectGPT),
		Watermark:    maxZero(w.Watermark),
		Citations:    maxZero(w.Citations),
		CWE:          maxZero(w.CWE),
		ShortPenalty: maxZero(w.ShortPenalty),
	}

	sum := n.Sum()
	if sum <= 0 {
		return model.Weights{}, ErrInvalidWeights
	}

	n.GLTR /= sum
	n.DetectGPT /= sum
	n.Watermark /= sum
	n.Citations /= sum
	n.CWE /= sum
	n.ShortPenalty /= sum
	return n, nil
}

func maxZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
