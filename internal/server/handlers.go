package server

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"sphereswap/internal/amm"
)

// Wire types mirror the persisted snapshot vocabulary: bands are "ticks"
// on the API surface.

type tickInfo struct {
	Index         int       `json:"index"`
	PlaneConstant float64   `json:"plane_constant"`
	Reserves      []float64 `json:"reserves"`
	Radius        float64   `json:"radius"`
	IsInterior    bool      `json:"is_interior"`
	IsBoundary    bool      `json:"is_boundary"`
	Liquidity     float64   `json:"liquidity"`
}

type stateResponse struct {
	Ticks          []tickInfo `json:"ticks"`
	TokenNames     []string   `json:"token_names"`
	GlobalReserves []float64  `json:"global_reserves"`
	TickCount      int        `json:"tick_count"`
}

type opResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type tradeRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type tradeResponse struct {
	Output  float64 `json:"output"`
	Success bool    `json:"success"`
	Message string  `json:"message"`
}

type addBandRequest struct {
	Plane    float64   `json:"plane"`
	Reserves []float64 `json:"reserves"`
}

type setReservesRequest struct {
	TickIndex int       `json:"tick_index"`
	Reserves  []float64 `json:"reserves"`
}

type addLiquidityRequest struct {
	TickIndex int       `json:"tick_index"`
	LPID      string    `json:"lp_id"`
	Amounts   []float64 `json:"amounts"`
}

type removeLiquidityRequest struct {
	TickIndex  int     `json:"tick_index"`
	LPID       string  `json:"lp_id"`
	Percentage float64 `json:"percentage"`
}

type removeLiquidityResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Withdrawn []float64 `json:"withdrawn"`
}

type reconfigureRequest struct {
	TokenNames      []string  `json:"token_names"`
	InitialReserves []float64 `json:"initial_reserves"`
	InitialPlane    float64   `json:"initial_plane"`
}

type priceInfo struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Price float64 `json:"price"`
}

func (s *Server) fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(opResponse{Success: false, Message: msg})
}

func (s *Server) failErr(c fiber.Ctx, err error) error {
	return s.fail(c, statusFor(err), err.Error())
}

func (s *Server) handleState(c fiber.Ctx) error {
	var resp stateResponse
	_ = s.guard.View(func(m *amm.Market) error {
		resp.Ticks = make([]tickInfo, 0, len(m.Bands))
		for i, band := range m.Bands {
			resp.Ticks = append(resp.Ticks, tickInfo{
				Index:         i,
				PlaneConstant: band.PlaneConstant,
				Reserves:      append([]float64(nil), band.Pool.Reserves...),
				Radius:        band.Pool.Radius,
				IsInterior:    band.IsInterior(),
				IsBoundary:    band.IsBoundary(),
				Liquidity:     band.Liquidity(),
			})
		}
		resp.TokenNames = append([]string(nil), m.TokenNames...)
		resp.GlobalReserves = append([]float64(nil), m.GlobalReserves...)
		resp.TickCount = len(m.Bands)
		return nil
	})
	return c.JSON(resp)
}

func (s *Server) handleTrade(c fiber.Ctx) error {
	var req tradeRequest
	if err := c.Bind().Body(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.From == "" || req.To == "" {
		return s.fail(c, fiber.StatusBadRequest, "from and to tokens are required")
	}
	if req.From == req.To {
		return s.fail(c, fiber.StatusBadRequest, "from and to tokens must differ")
	}
	if req.Amount <= 0 {
		return s.fail(c, fiber.StatusBadRequest, "amount must be positive")
	}

	var output float64
	err := s.mutateAndPersist(func(m *amm.Market) error {
		var err error
		output, err = m.RouteTrade(req.From, req.To, req.Amount)
		return err
	})
	if err != nil {
		s.logger.Info("trade rejected", zap.String("from", req.From), zap.String("to", req.To), zap.Float64("amount", req.Amount), zap.Error(err))
		return c.Status(statusFor(err)).JSON(tradeResponse{Success: false, Message: "trade failed: " + err.Error()})
	}

	s.logger.Info("trade executed", zap.String("from", req.From), zap.String("to", req.To), zap.Float64("amount", req.Amount), zap.Float64("output", output))
	return c.JSON(tradeResponse{
		Output:  output,
		Success: true,
		Message: fmt.Sprintf("swapped %v %s for %v %s", req.Amount, req.From, output, req.To),
	})
}

func (s *Server) handleAddBand(c fiber.Ctx) error {
	var req addBandRequest
	if err := c.Bind().Body(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validateBandInput(req.Plane, req.Reserves); err != nil {
		return s.fail(c, fiber.StatusBadRequest, err.Error())
	}

	err := s.mutateAndPersist(func(m *amm.Market) error {
		if len(req.Reserves) != len(m.TokenNames) {
			return fmt.Errorf("%d reserves vs %d tokens: %w", len(req.Reserves), len(m.TokenNames), amm.ErrLengthMismatch)
		}
		return m.AddBand(req.Plane, req.Reserves)
	})
	if err != nil {
		return s.failErr(c, err)
	}

	s.logger.Info("band added", zap.Float64("plane", req.Plane))
	return c.JSON(opResponse{Success: true, Message: fmt.Sprintf("added tick with plane constant %v", req.Plane)})
}

func (s *Server) handleSetReserves(c fiber.Ctx) error {
	var req setReservesRequest
	if err := c.Bind().Body(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := nonNegative(req.Reserves); err != nil {
		return s.fail(c, fiber.StatusBadRequest, err.Error())
	}

	err := s.mutateAndPersist(func(m *amm.Market) error {
		if len(req.Reserves) != len(m.TokenNames) {
			return fmt.Errorf("%d reserves vs %d tokens: %w", len(req.Reserves), len(m.TokenNames), amm.ErrLengthMismatch)
		}
		return m.SetBandReserves(req.TickIndex, req.Reserves)
	})
	if err != nil {
		return s.failErr(c, err)
	}

	s.logger.Info("reserves overwritten", zap.Int("tick", req.TickIndex))
	return c.JSON(opResponse{Success: true, Message: fmt.Sprintf("set reserves for tick %d", req.TickIndex)})
}

func (s *Server) handleAddLiquidity(c fiber.Ctx) error {
	var req addLiquidityRequest
	if err := c.Bind().Body(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.LPID == "" {
		return s.fail(c, fiber.StatusBadRequest, "lp_id is required")
	}
	if err := nonNegative(req.Amounts); err != nil {
		return s.fail(c, fiber.StatusBadRequest, err.Error())
	}

	err := s.mutateAndPersist(func(m *amm.Market) error {
		if len(req.Amounts) != len(m.TokenNames) {
			return fmt.Errorf("%d amounts vs %d tokens: %w", len(req.Amounts), len(m.TokenNames), amm.ErrLengthMismatch)
		}
		return m.AddLiquidity(req.TickIndex, req.LPID, req.Amounts)
	})
	if err != nil {
		return s.failErr(c, err)
	}

	s.logger.Info("liquidity added", zap.Int("tick", req.TickIndex), zap.String("lp", req.LPID))
	return c.JSON(opResponse{Success: true, Message: fmt.Sprintf("added liquidity for LP %s", req.LPID)})
}

func (s *Server) handleRemoveLiquidity(c fiber.Ctx) error {
	var req removeLiquidityRequest
	if err := c.Bind().Body(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.LPID == "" {
		return s.fail(c, fiber.StatusBadRequest, "lp_id is required")
	}
	if req.Percentage < 0 || req.Percentage > 1 {
		return s.fail(c, fiber.StatusBadRequest, "percentage must be in [0,1]")
	}

	var withdrawn []float64
	err := s.mutateAndPersist(func(m *amm.Market) error {
		var err error
		withdrawn, err = m.WithdrawLiquidity(req.TickIndex, req.LPID, req.Percentage)
		return err
	})
	if err != nil {
		return s.failErr(c, err)
	}

	s.logger.Info("liquidity removed", zap.Int("tick", req.TickIndex), zap.String("lp", req.LPID), zap.Float64("percentage", req.Percentage))
	return c.JSON(removeLiquidityResponse{
		Success:   true,
		Message:   fmt.Sprintf("removed liquidity for LP %s", req.LPID),
		Withdrawn: withdrawn,
	})
}

func (s *Server) handleReset(c fiber.Ctx) error {
	err := s.mutateAndPersist(func(m *amm.Market) error {
		defaults := make([]float64, len(m.TokenNames))
		for i := range defaults {
			defaults[i] = 1000
		}
		return m.ReconfigureWithBand(m.TokenNames, 600, defaults)
	})
	if err != nil {
		return s.failErr(c, err)
	}

	s.logger.Info("market reset")
	return c.JSON(opResponse{Success: true, Message: "market state reset with default tick"})
}

func (s *Server) handleReconfigure(c fiber.Ctx) error {
	var req reconfigureRequest
	if err := c.Bind().Body(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.TokenNames) == 0 {
		return s.fail(c, fiber.StatusBadRequest, "at least one token is required")
	}
	if len(req.InitialReserves) != len(req.TokenNames) {
		return s.fail(c, fiber.StatusBadRequest, "token names and reserves length mismatch")
	}
	if err := s.validateBandInput(req.InitialPlane, req.InitialReserves); err != nil {
		return s.fail(c, fiber.StatusBadRequest, err.Error())
	}

	err := s.mutateAndPersist(func(m *amm.Market) error {
		return m.ReconfigureWithBand(req.TokenNames, req.InitialPlane, req.InitialReserves)
	})
	if err != nil {
		return s.failErr(c, err)
	}

	s.logger.Info("market reconfigured", zap.Strings("tokens", req.TokenNames))
	return c.JSON(opResponse{Success: true, Message: fmt.Sprintf("market reconfigured with tokens %v", req.TokenNames)})
}

func (s *Server) handlePrices(c fiber.Ctx) error {
	prices := make([]priceInfo, 0)
	_ = s.guard.View(func(m *amm.Market) error {
		for i := range m.TokenNames {
			for j := range m.TokenNames {
				if i == j {
					continue
				}
				price, err := m.AggregatedPrice(m.TokenNames[i], m.TokenNames[j])
				if err != nil {
					continue
				}
				prices = append(prices, priceInfo{From: m.TokenNames[i], To: m.TokenNames[j], Price: price})
			}
		}
		return nil
	})
	return c.JSON(prices)
}

func (s *Server) handlePrice(c fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" {
		return s.fail(c, fiber.StatusBadRequest, "missing from parameter")
	}
	if to == "" {
		return s.fail(c, fiber.StatusBadRequest, "missing to parameter")
	}

	var price float64
	err := s.guard.View(func(m *amm.Market) error {
		var err error
		price, err = m.AggregatedPrice(from, to)
		return err
	})
	if err != nil {
		return s.failErr(c, err)
	}
	return c.JSON(priceInfo{From: from, To: to, Price: price})
}

// validateBandInput enforces the boundary contract for band creation:
// non-negative reserves and a positive plane constant, rejected before any
// mutation.
func (s *Server) validateBandInput(plane float64, reserves []float64) error {
	if plane <= 0 {
		return fmt.Errorf("plane constant %v must be positive", plane)
	}
	return nonNegative(reserves)
}

func nonNegative(values []float64) error {
	for i, v := range values {
		if v < 0 {
			return fmt.Errorf("negative value %v at position %d", v, i)
		}
	}
	return nil
}
