package amm

import "math"

// SphereInvariant returns Σ (r − xᵢ)² − r², which is zero (within
// tolerance) when the reserves satisfy the invariant.
func SphereInvariant(reserves []float64, radius float64) float64 {
	var lhs float64
	for _, x := range reserves {
		diff := radius - x
		lhs += diff * diff
	}
	return lhs - radius*radius
}

// EqualPricePoint returns q = r(1 − 1/√n), the per-token reserve level at
// which all tokens trade at equal price.
func EqualPricePoint(radius float64, nTokens int) float64 {
	if nTokens == 0 {
		return 0
	}
	return radius * (1 - 1/math.Sqrt(float64(nTokens)))
}

// DecomposeReserves splits a reserve vector into its component along the
// uniform direction v = (1, …, 1)/√n and the orthogonal remainder.
// It returns the parallel magnitude and the orthogonal component.
func DecomposeReserves(reserves []float64) (float64, []float64) {
	n := len(reserves)
	if n == 0 {
		return 0, nil
	}
	norm := math.Sqrt(float64(n))
	var dot float64
	for _, x := range reserves {
		dot += x
	}
	parallelMag := dot / norm
	perCoord := parallelMag / norm
	orthogonal := make([]float64, n)
	for i, x := range reserves {
		orthogonal[i] = x - perCoord
	}
	return parallelMag, orthogonal
}
