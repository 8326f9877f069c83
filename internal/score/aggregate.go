package score

import "github.com/provenalabs/mimesis/internal/model"

// ShortSegmentDiscount halves the aggregation weight of segments too
// short to score reliably
const ShortSegmentDiscount = 0.5

// Overall reduces per-segment scores to a single document score using
// a length-weighted mean. Segments with no entry in scores are skipped
// rather than counted as zero, and segments under MinReliableLength
// carry half their length as weight. A document with no scored
// segments scores 0.
func Overall(scores map[string]model.SegmentScore, segments []model.SegmentRef) float64 {
	var num, den float64
	for _, seg := range segments {
		s, ok := scores[seg.ID]
		if !ok {
			continue
		}
		w := float64(seg.LengthChars)
		if seg.LengthChars < MinReliableLength {
			w *= ShortSegmentDiscount
		}
		if w <= 0 {
			continue
		}
		num += s.Score * w
		den += w
	}
	if den == 0 {
		return 0
	}
	return clamp01(num / den)
}
