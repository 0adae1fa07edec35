package amm

import (
	"fmt"
	"math"
)

// classifyTolerance is the half-width of the boundary regime around a
// band's plane constant.
const classifyTolerance = 1e-6

// Band is a single liquidity band ("tick"): one sphere pool bounded by the
// plane r_parallel = PlaneConstant, plus LP share bookkeeping.
//
// LP shares are deliberately simplified: each deposit credits the raw sum
// of deposited token amounts rather than a pool-value-based proportion.
// This is scale-dependent and can misallocate value across deposits made
// at different reserve levels; it is preserved for behavioral parity, not
// fixed here.
type Band struct {
	// Pool is the band's exclusively owned sphere pool.
	Pool *Pool
	// PlaneConstant is the boundary threshold for classification.
	PlaneConstant float64
	// LPShares maps LP identifiers to their share balance.
	LPShares map[string]float64
}

// NewBand constructs a band from raw reserves and a plane constant.
func NewBand(tokenNames []string, reserves []float64, planeConstant float64) (*Band, error) {
	pool, err := NewPool(tokenNames, reserves)
	if err != nil {
		return nil, err
	}
	return &Band{
		Pool:          pool,
		PlaneConstant: planeConstant,
		LPShares:      make(map[string]float64),
	}, nil
}

// ParallelMagnitude is the component of the current reserves along the
// uniform (1, …, 1)/√n direction. Recomputed on demand, never stored.
func (b *Band) ParallelMagnitude() float64 {
	mag, _ := DecomposeReserves(b.Pool.Reserves)
	return mag
}

// IsInterior reports whether the reserves sit strictly inside the band's
// plane.
func (b *Band) IsInterior() bool {
	return b.ParallelMagnitude() > b.PlaneConstant+classifyTolerance
}

// IsBoundary reports whether the reserves sit on the band's plane within
// tolerance. Bands that are neither interior nor boundary are exterior.
func (b *Band) IsBoundary() bool {
	return math.Abs(b.ParallelMagnitude()-b.PlaneConstant) < classifyTolerance
}

// AddLiquidity adds amounts elementwise to the reserves and credits lpID
// with Σamounts shares, creating the position if absent. Deposits move the
// pool to a new sphere, so the radius is re-solved rather than preserved.
// Negative amounts are not rejected at this layer.
func (b *Band) AddLiquidity(lpID string, amounts []float64) error {
	if len(amounts) != len(b.Pool.Reserves) {
		return fmt.Errorf("%d amounts vs %d tokens: %w", len(amounts), len(b.Pool.Reserves), ErrLengthMismatch)
	}
	var total float64
	for i, amt := range amounts {
		b.Pool.Reserves[i] += amt
		total += amt
	}
	b.Pool.Radius = SolveRadius(b.Pool.Reserves)
	b.LPShares[lpID] += total
	return nil
}

// WithdrawLiquidity removes percentage (in [0,1]) of lpID's position and
// returns the per-token amounts withdrawn. A full withdrawal (percentage
// within 1e-12 of 1) removes the LP entry entirely.
func (b *Band) WithdrawLiquidity(lpID string, percentage float64) ([]float64, error) {
	if percentage < 0 || percentage > 1 {
		return nil, fmt.Errorf("percentage %v: %w", percentage, ErrInvalidPercentage)
	}
	shares, ok := b.LPShares[lpID]
	if !ok {
		return nil, fmt.Errorf("lp %q: %w", lpID, ErrLPNotFound)
	}
	if shares == 0 {
		return nil, fmt.Errorf("lp %q: %w", lpID, ErrZeroShares)
	}

	var totalShares float64
	for _, s := range b.LPShares {
		totalShares += s
	}
	sharesToRemove := shares * percentage
	ratio := sharesToRemove / totalShares

	withdrawn := make([]float64, len(b.Pool.Reserves))
	for i := range b.Pool.Reserves {
		amt := b.Pool.Reserves[i] * ratio
		b.Pool.Reserves[i] -= amt
		withdrawn[i] = amt
	}
	b.Pool.Radius = SolveRadius(b.Pool.Reserves)

	if percentage >= 1-epsilon {
		delete(b.LPShares, lpID)
	} else {
		b.LPShares[lpID] -= sharesToRemove
	}
	return withdrawn, nil
}

// Liquidity is a coarse size proxy: the plain sum of reserves, not a
// price-weighted value.
func (b *Band) Liquidity() float64 {
	var sum float64
	for _, x := range b.Pool.Reserves {
		sum += x
	}
	return sum
}
