package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/provenalabs/mimesis/internal/model"
)

// ExplainWeights renders a weight vector as the percentage each slot
// carries after normalization, for report footers and the weights
// command. With the default vector this reads:
//
//	GLTR (22%), DetectGPT (22%), Watermark (18%), Citations (25%), Code Security (10%), Length penalty (3%)
func ExplainWeights(w model.Weights) (string, error) {
	n, err := Normalize(w)
	if err != nil {
		return "", err
	}

	parts := []string{
		fmt.Sprintf("GLTR (%d%%)", pct(n.GLTR)),
		fmt.Sprintf("DetectGPT (%d%%)", pct(n.DetectGPT)),
		fmt.Sprintf("Watermark (%d%%)", pct(n.Watermark)),
		fmt.Sprintf("Citations (%d%%)", pct(n.Citations)),
		fmt.Sprintf("Code Security (%d%%)", pct(n.CWE)),
		fmt.Sprintf("Length penalty (%d%%)", pct(n.ShortPenalty)),
	}
	return strings.Join(parts, ", "), nil
}

func pct(v float64) int {
	return int(math.Round(v * 100))
}
