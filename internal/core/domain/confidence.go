package domain

// Verdict is the discrete confidence tier derived from the top search
// hit. It gates the caller's choice between a context-based answer and
// a fallback response.
type Verdict int

// Verdict tiers, weakest to strongest. The zero value is VerdictNone.
const (
	VerdictNone Verdict = iota
	VerdictLow
	VerdictMedium
	VerdictMediumHigh
	VerdictHigh
)

// String returns the display name of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictHigh:
		return "high"
	case VerdictMediumHigh:
		return "medium-high"
	case VerdictMedium:
		return "medium"
	case VerdictLow:
		return "low"
	default:
		return "none"
	}
}

// AtLeast reports whether v meets or exceeds the minimum verdict.
func (v Verdict) AtLeast(min Verdict) bool {
	return v >= min
}

// Thresholds maps top-hit distances to verdict tiers.
// The defaults are calibrated to a specific embedding model's distance
// distribution; re-embedding with a different model requires
// re-calibration, so these live in configuration rather than code.
type Thresholds struct {
	// High is the exclusive upper bound for VerdictHigh.
	High float64

	// MediumHigh is the exclusive upper bound for VerdictMediumHigh.
	MediumHigh float64

	// Medium is the exclusive upper bound for VerdictMedium.
	// Distances at or above it yield VerdictLow.
	Medium float64
}

// DefaultThresholds returns the calibrated distance cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.5, MediumHigh: 0.8, Medium: 1.2}
}

// VerdictForDistance maps a top-hit distance to a verdict.
// Bounds are exclusive on the stronger side: a distance of exactly
// High yields VerdictMediumHigh, not VerdictHigh.
func (t Thresholds) VerdictForDistance(distance float64) Verdict {
	switch {
	case distance < t.High:
		return VerdictHigh
	case distance < t.MediumHigh:
		return VerdictMediumHigh
	case distance < t.Medium:
		return VerdictMedium
	default:
		return VerdictLow
	}
}
