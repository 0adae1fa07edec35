package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"sphereswap/internal/amm"
)

// badRequestKinds are the recoverable validation-class errors that map to
// 400 responses; anything else from the core is a server-side failure.
var badRequestKinds = []error{
	amm.ErrTokenNotFound,
	amm.ErrInvalidAmount,
	amm.ErrSameToken,
	amm.ErrComplexSolution,
	amm.ErrInsufficientLiquidity,
	amm.ErrDivisionByZero,
	amm.ErrLengthMismatch,
	amm.ErrInvalidPercentage,
	amm.ErrLPNotFound,
	amm.ErrZeroShares,
	amm.ErrNoLiquidityForPrice,
	amm.ErrInvalidReserves,
	amm.ErrBandIndex,
}

func statusFor(err error) int {
	for _, kind := range badRequestKinds {
		if errors.Is(err, kind) {
			return fiber.StatusBadRequest
		}
	}
	return fiber.StatusInternalServerError
}
