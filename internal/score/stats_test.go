package score

import (
	"math"
	"testing"

	"github.com/provenalabs/mimesis/internal/model"
)

func TestDistribution_Summary(t *testing.T) {
	scores := map[string]model.SegmentScore{
		"seg-001": {Score: 0.2},
		"seg-002": {Score: 0.4},
		"seg-003": {Score: 0.6},
		"seg-004": {Score: 0.8},
	}

	st := Distribution(scores)

	if st.Scored != 4 {
		t.Errorf("Expected 4 scored, got %d", st.Scored)
	}
	if math.Abs(st.Mean-0.5) > 1e-9 {
		t.Errorf("Expected mean 0.5, got %.6f", st.Mean)
	}
	if st.Min != 0.2 || st.Max != 0.8 {
		t.Errorf("Expected min 0.2 max 0.8, got %.2f / %.2f", st.Min, st.Max)
	}
	if st.Median < 0.2 || st.Median > 0.8 {
		t.Errorf("Median outside observed range: %.6f", st.Median)
	}
	if st.StdDev <= 0 {
		t.Errorf("Expected positive deviation for spread scores, got %.6f", st.StdDev)
	}
}

func TestDistribution_SingleScore(t *testing.T) {
	st := Distribution(map[string]model.SegmentScore{"seg-001": {Score: 0.42}})

	if st.Scored != 1 {
		t.Errorf("Expected 1 scored, got %d", st.Scored)
	}
	if st.StdDev != 0 {
		t.Errorf("Deviation of one score must be 0, got %.6f", st.StdDev)
	}
	if st.Mean != 0.42 || st.Min != 0.42 || st.Max != 0.42 {
		t.Errorf("Single score should pin mean/min/max at 0.42: %+v", st)
	}
}

func TestDistribution_Empty(t *testing.T) {
	st := Distribution(nil)
	if st.Scored != 0 || st.Mean != 0 {
		t.Errorf("Expected zero stats for empty input, got %+v", st)
	}
}
