package score

// HasCounterEvidence reports whether the DetectGPT curvature argues
// against generative authorship. Zero or positive curvature is what
// human-written text typically shows. A nil curvature is no evidence
// in either direction.
func HasCounterEvidence(curvature *float64) bool {
	return curvature != nil && *curvature >= 0
}
