// Package server exposes the market over an HTTP API. Each mutating
// endpoint validates its full request before touching market state and
// persists a snapshot after a successful mutation.
package server

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"sphereswap/internal/amm"
	"sphereswap/internal/model"
	"sphereswap/internal/storage"
)

// Server wires the guarded market, the snapshot store, and the HTTP
// routes together.
type Server struct {
	guard  *Guard
	store  storage.Store
	logger *zap.Logger
	app    *fiber.App
}

func New(guard *Guard, store storage.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		guard:  guard,
		store:  store,
		logger: logger,
		app:    fiber.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/api/state", s.handleState)
	s.app.Get("/api/prices", s.handlePrices)
	s.app.Get("/api/price", s.handlePrice)
	s.app.Post("/api/trade", s.handleTrade)
	s.app.Post("/api/tick", s.handleAddBand)
	s.app.Post("/api/set-reserves", s.handleSetReserves)
	s.app.Post("/api/add-liquidity", s.handleAddLiquidity)
	s.app.Post("/api/remove-liquidity", s.handleRemoveLiquidity)
	s.app.Post("/api/reset", s.handleReset)
	s.app.Post("/api/reconfigure", s.handleReconfigure)
}

// Listen serves the API on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber application, primarily for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// mutateAndPersist applies fn under the write lock and, on success, saves
// the resulting snapshot. A failed save is logged but does not fail the
// request: the in-memory market stays authoritative.
func (s *Server) mutateAndPersist(fn func(m *amm.Market) error) error {
	var snap model.Snapshot
	err := s.guard.Mutate(func(m *amm.Market) error {
		if err := fn(m); err != nil {
			return err
		}
		snap = m.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.store.Save(context.Background(), snap); err != nil {
		s.logger.Warn("persist snapshot", zap.Error(err))
	}
	return nil
}
