// Package amm implements a hypersphere-invariant automated market maker:
// a single-pool invariant solver and swap function, a per-band liquidity
// wrapper with LP share bookkeeping, and a multi-band aggregator that
// routes trades and computes liquidity-weighted prices.
//
// The package holds plain in-memory state with no internal locking; the
// calling boundary must serialize mutating operations against a given
// market instance.
package amm

import (
	"fmt"
	"math"
)

const (
	// invariantTolerance bounds |Σ(r−xᵢ)² − r²| for a valid reserve vector.
	invariantTolerance = 1e-6

	// epsilon guards near-zero denominators, degenerate quadratic
	// coefficients, and discriminant rounding noise.
	epsilon = 1e-12
)

// Pool holds n token reserves constrained to the surface of a hypersphere
// of radius r. Every state transition must keep Σ (r − xᵢ)² = r².
type Pool struct {
	// Radius is the hypersphere radius r.
	Radius float64
	// Reserves holds [x₁, …, xₙ], index-aligned with TokenNames.
	Reserves []float64
	// TokenNames holds the token symbols, unique within a pool.
	TokenNames []string
}

// NewPool constructs a pool from initial reserves, solving the radius so
// the invariant holds at genesis. The reserve and token slices are copied.
func NewPool(tokenNames []string, reserves []float64) (*Pool, error) {
	if len(tokenNames) != len(reserves) {
		return nil, fmt.Errorf("%d token names vs %d reserves: %w", len(tokenNames), len(reserves), ErrLengthMismatch)
	}
	p := &Pool{
		Radius:     SolveRadius(reserves),
		Reserves:   append([]float64(nil), reserves...),
		TokenNames: append([]string(nil), tokenNames...),
	}
	if !p.CheckInvariant() {
		return nil, fmt.Errorf("reserves %v: %w", reserves, ErrInvalidReserves)
	}
	return p, nil
}

// SolveRadius returns the radius satisfying the invariant for the given
// reserves. With a = n−1, b = −2Σx, c = Σx² it solves a·r² + b·r + c = 0
// and picks the positive root. The single-token case sets r to the lone
// reserve; that rule is a documented simplification kept as-is, not a
// consequence of the general quadratic.
func SolveRadius(reserves []float64) float64 {
	if len(reserves) == 0 {
		return 0
	}
	n := float64(len(reserves))
	var sumX, sumX2 float64
	for _, x := range reserves {
		sumX += x
		sumX2 += x * x
	}
	a := n - 1
	if math.Abs(a) < epsilon {
		return sumX
	}
	b := -2 * sumX
	c := sumX2
	disc := b*b - 4*a*c
	// Rounding noise can push a zero discriminant slightly negative.
	if disc < 0 && disc > -epsilon {
		disc = 0
	}
	sqrtDisc := math.Sqrt(disc)
	r1 := (-b + sqrtDisc) / (2 * a)
	if r1 > 0 {
		return r1
	}
	return (-b - sqrtDisc) / (2 * a)
}

// CheckInvariant reports whether the reserves lie on the radius-r sphere
// within tolerance.
func (p *Pool) CheckInvariant() bool {
	return math.Abs(SphereInvariant(p.Reserves, p.Radius)) < invariantTolerance
}

// IndexOf returns the reserve index for a token symbol.
func (p *Pool) IndexOf(token string) (int, error) {
	for i, name := range p.TokenNames {
		if name == token {
			return i, nil
		}
	}
	return 0, fmt.Errorf("token %q: %w", token, ErrTokenNotFound)
}

// SpotPrice returns the instantaneous price of to in units of from,
// (r − x_to) / (r − x_from).
func (p *Pool) SpotPrice(from, to string) (float64, error) {
	i, err := p.IndexOf(from)
	if err != nil {
		return 0, err
	}
	j, err := p.IndexOf(to)
	if err != nil {
		return 0, err
	}
	denom := p.Radius - p.Reserves[i]
	if math.Abs(denom) < epsilon {
		return 0, fmt.Errorf("from token %q is at radius: %w", from, ErrDivisionByZero)
	}
	return (p.Radius - p.Reserves[j]) / denom, nil
}

// Swap executes from → to for amountIn and returns the output amount.
// All other coordinates stay fixed, so with A = r − x_from, B = r − x_to
// the output solves Δy² − 2BΔy + (Δx² − 2AΔx) = 0; the taken root is the
// one that decreases the to reserve. The derivation assumes two distinct
// coordinates, so a self-swap is rejected up front.
func (p *Pool) Swap(from, to string, amountIn float64) (float64, error) {
	if from == to {
		return 0, fmt.Errorf("token %q: %w", from, ErrSameToken)
	}
	if amountIn <= 0 {
		return 0, fmt.Errorf("swap amount %v: %w", amountIn, ErrInvalidAmount)
	}
	i, err := p.IndexOf(from)
	if err != nil {
		return 0, err
	}
	j, err := p.IndexOf(to)
	if err != nil {
		return 0, err
	}

	distFrom := p.Radius - p.Reserves[i]
	distTo := p.Radius - p.Reserves[j]
	c := amountIn*amountIn - 2*distFrom*amountIn
	disc := distTo*distTo - c
	if disc < 0 {
		return 0, fmt.Errorf("input %v too large for pool: %w", amountIn, ErrComplexSolution)
	}
	output := -distTo + math.Sqrt(disc)
	if output <= 0 || output > p.Reserves[j] {
		return 0, fmt.Errorf("output %v against reserve %v: %w", output, p.Reserves[j], ErrInsufficientLiquidity)
	}

	p.Reserves[i] += amountIn
	p.Reserves[j] -= output
	p.mustHoldInvariant("swap")
	return output, nil
}

// SetReserves overwrites the reserve vector and re-solves the radius.
// Used by the administrative set-reserves path; this moves the pool to a
// new sphere and is not an invariant-preserving trade.
func (p *Pool) SetReserves(reserves []float64) error {
	if len(reserves) != len(p.TokenNames) {
		return fmt.Errorf("%d reserves vs %d tokens: %w", len(reserves), len(p.TokenNames), ErrLengthMismatch)
	}
	radius := SolveRadius(reserves)
	if math.Abs(SphereInvariant(reserves, radius)) >= invariantTolerance {
		return fmt.Errorf("reserves %v: %w", reserves, ErrInvalidReserves)
	}
	p.Reserves = append(p.Reserves[:0], reserves...)
	p.Radius = radius
	return nil
}

// mustHoldInvariant panics when a state transition that should have kept
// the invariant broke it. Reaching this is a programming fault, not a
// recoverable error.
func (p *Pool) mustHoldInvariant(op string) {
	if !p.CheckInvariant() {
		panic(fmt.Sprintf("amm: sphere invariant broken after %s: radius=%v reserves=%v", op, p.Radius, p.Reserves))
	}
}
