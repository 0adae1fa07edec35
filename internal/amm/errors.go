package amm

import "errors"

// Recoverable, caller-facing error kinds. Operations wrap these with
// contextual detail via fmt.Errorf("...: %w", ...); callers classify with
// errors.Is. Invariant violations detected after a successful swap are a
// programming fault and panic instead.
var (
	// ErrTokenNotFound is returned when a referenced symbol is absent from
	// the pool's token list.
	ErrTokenNotFound = errors.New("token not found in pool")

	// ErrInvalidAmount is returned for a non-positive trade amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSameToken is returned when a swap names the same token on both
	// sides.
	ErrSameToken = errors.New("from and to tokens must differ")

	// ErrComplexSolution is returned when the swap quadratic has no real
	// root, usually an input too large relative to reserves.
	ErrComplexSolution = errors.New("swap has no real solution")

	// ErrInsufficientLiquidity is returned when a computed output exceeds
	// the available reserve, or a routed trade cannot be fully filled.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrDivisionByZero is returned when the spot price denominator is at
	// or near zero.
	ErrDivisionByZero = errors.New("division by zero in spot price")

	// ErrLengthMismatch is returned when a reserve or amount vector does
	// not match the token count.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrInvalidPercentage is returned for a withdrawal percentage outside
	// [0, 1].
	ErrInvalidPercentage = errors.New("percentage must be in [0,1]")

	// ErrLPNotFound is returned for a withdrawal against an unknown LP.
	ErrLPNotFound = errors.New("lp not found")

	// ErrZeroShares is returned for a withdrawal against an exhausted LP
	// position.
	ErrZeroShares = errors.New("lp has no shares")

	// ErrNoLiquidityForPrice is returned when an aggregated price has zero
	// total weight across all bands.
	ErrNoLiquidityForPrice = errors.New("no liquidity for price")

	// ErrInvalidReserves is returned when a reserve vector admits no radius
	// satisfying the sphere invariant.
	ErrInvalidReserves = errors.New("reserves admit no valid sphere radius")

	// ErrBandIndex is returned for a band index outside the market's band
	// list.
	ErrBandIndex = errors.New("band index out of range")

	// ErrSnapshotVersion is returned when a persisted snapshot carries an
	// unsupported version.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)
