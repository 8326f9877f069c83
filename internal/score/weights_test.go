package score

import (
	"errors"
	"math"
	"testing"

	"github.com/provenalabs/mimesis/internal/model"
)

func TestNormalize_ScaleInvariance(t *testing.T) {
	// {22, 22, 18, 25, 10, 3} must behave exactly like the fractional
	// defaults: only proportions matter.
	scaled := model.Weights{
		GLTR: 22, DetectGPT: 22, Watermark: 18,
		Citations: 25, CWE: 10, ShortPenalty: 3,
	}

	a, err := Normalize(model.DefaultWeights())
	if err != nil {
		t.Fatalf("Normalize(defaults) failed: %v", err)
	}
	b, err := Normalize(scaled)
	if err != nil {
		t.Fatalf("Normalize(scaled) failed: %v", err)
	}

	pairs := [][2]float64{
		{a.GLTR, b.GLTR},
		{a.DetectGPT, b.DetectGPT},
		{a.Watermark, b.Watermark},
		{a.Citations, b.Citations},
		{a.CWE, b.CWE},
		{a.ShortPenalty, b.ShortPenalty},
	}
	for i, p := range pairs {
		if math.Abs(p[0]-p[1]) > 1e-9 {
			t.Errorf("Slot %d diverged after scaling: %.12f vs %.12f", i, p[0], p[1])
		}
	}
}

func TestNormalize_SumsToOne(t *testing.T) {
	n, err := Normalize(model.Weights{GLTR: 3, DetectGPT: 1, Watermark: 0.5, Citations: 2, CWE: 7, ShortPenalty: 0.25})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if math.Abs(n.Sum()-1.0) > 1e-9 {
		t.Errorf("Normalized weights sum to %.12f, want 1", n.Sum())
	}
}

func TestNormalize_ClampsNegativeSlots(t *testing.T) {
	// A negative slot disables that signal without failing the vector.
	n, err := Normalize(model.Weights{GLTR: 1, DetectGPT: -5, Watermark: 1})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if n.DetectGPT != 0 {
		t.Errorf("Negative slot should normalize to 0, got %.6f", n.DetectGPT)
	}
	if math.Abs(n.GLTR-0.5) > 1e-9 || math.Abs(n.Watermark-0.5) > 1e-9 {
		t.Errorf("Remaining mass split wrong: gltr=%.6f watermark=%.6f", n.GLTR, n.Watermark)
	}
}

func TestNormalize_RejectsZeroMass(t *testing.T) {
	cases := []model.Weights{
		{},
		{GLTR: -1, DetectGPT: -1, Watermark: -1, Citations: -1, CWE: -1, ShortPenalty: -1},
	}
	for _, w := range cases {
		_, err := Normalize(w)
		if !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("Expected ErrInvalidWeights for %+v, got %v", w, err)
		}
	}
}

func TestEngine_ScoreSegment_WeightScaleInvariance(t *testing.T) {
	sig := model.SignalSet{
		GLTRTail:        model.Float(0.2),
		Curvature:       model.Float(-0.4),
		WatermarkP:      model.Float(0.15),
		RefValidityRate: model.Float(0.6),
		LengthChars:     1800,
		Type:            model.SegmentProse,
	}

	fractional, err := NewEngine(model.DefaultWeights())
	if err != nil {
		t.Fatalf("NewEngine(fractional) failed: %v", err)
	}
	scaled, err := NewEngine(model.Weights{
		GLTR: 22, DetectGPT: 22, Watermark: 18,
		Citations: 25, CWE: 10, ShortPenalty: 3,
	})
	if err != nil {
		t.Fatalf("NewEngine(scaled) failed: %v", err)
	}

	a := fractional.ScoreSegment(sig)
	b := scaled.ScoreSegment(sig)

	if math.Abs(a.Score-b.Score) > 0.01 {
		t.Errorf("Scores diverged across weight scales: %.6f vs %.6f", a.Score, b.Score)
	}
	if a.Confidence != b.Confidence {
		t.Errorf("Confidence diverged across weight scales: %s vs %s", a.Confidence, b.Confidence)
	}
}
