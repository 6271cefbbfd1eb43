package rag

import "policyassist/types"

const (
	highConfidenceScore   = 0.75
	mediumConfidenceScore = 0.50
)

// confidenceFor maps the best genuine retrieval score to a confidence
// bucket. The thresholds are inclusive: exactly 0.75 is High, exactly 0.50
// is Medium. No scores at all means Low.
func confidenceFor(scores []float64) types.Confidence {
	if len(scores) == 0 {
		return types.ConfidenceLow
	}

	top := scores[0]
	for _, s := range scores[1:] {
		if s > top {
			top = s
		}
	}

	switch {
	case top >= highConfidenceScore:
		return types.ConfidenceHigh
	case top >= mediumConfidenceScore:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}
