package server

import (
	"sync"

	"sphereswap/internal/amm"
)

// Guard is the exclusive-access ownership handle for one market instance.
// The core has no internal locking, so every mutating operation holds the
// write lock for its full duration, including RouteTrade's multi-band
// loop; read-only operations share the read lock.
type Guard struct {
	mu     sync.RWMutex
	market *amm.Market
}

func NewGuard(market *amm.Market) *Guard {
	return &Guard{market: market}
}

// Mutate runs fn with exclusive access to the market.
func (g *Guard) Mutate(fn func(m *amm.Market) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.market)
}

// View runs fn with shared read access to the market. fn must not mutate.
func (g *Guard) View(fn func(m *amm.Market) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(g.market)
}
