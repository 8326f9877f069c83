package score

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/provenalabs/mimesis/internal/model"
)

// Distribution summarizes the spread of segment scores for the report
// header. Documents where nothing scored get the zero value.
func Distribution(scores map[string]model.SegmentScore) model.ScoreStats {
	vals := make([]float64, 0, len(scores))
	for _, s := range scores {
		vals = append(vals, s.Score)
	}
	if len(vals) == 0 {
		return model.ScoreStats{}
	}
	sort.Float64s(vals)

	st := model.ScoreStats{
		Mean:   stat.Mean(vals, nil),
		Median: stat.Quantile(0.5, stat.Empirical, vals, nil),
		Min:    vals[0],
		Max:    vals[len(vals)-1],
		Scored: len(vals),
	}
	// Sample deviation is undefined for a single score.
	if len(vals) > 1 {
		st.StdDev = stat.StdDev(vals, nil)
	}
	return st
}
