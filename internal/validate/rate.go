package validate

import "github.com/provenalabs/mimesis/internal/model"

// ValidityRate reduces a segment's checks to the fraction that
// resolved. Skipped checks count in neither direction. A segment where
// nothing was actually audited has no rate at all rather than a
// perfect one, so the citation signal stays absent.
func ValidityRate(checks []model.RefCheck) *float64 {
	resolved := 0
	considered := 0

	for _, check := range checks {
		if check.Skipped {
			continue
		}
		considered++
		if check.Resolved {
			resolved++
		}
	}

	if considered == 0 {
		return nil
	}

	rate := float64(resolved) / float64(considered)
	return &rate
}
