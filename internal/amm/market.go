package amm

import (
	"fmt"
	"math"
	"sort"
)

const (
	// maxBandDrainRatio caps how much of a band's source reserve one
	// routing hop may consume, keeping headroom so a single band is never
	// fully drained of the source token in one hop.
	maxBandDrainRatio = 0.9

	// routeResidualTolerance is the largest unfilled remainder a route may
	// leave and still count as fully executed.
	routeResidualTolerance = 1e-8
)

// Market aggregates liquidity bands sharing one token list into a single
// tradable market. Bands keep insertion order; GlobalReserves is a derived
// projection recomputed from the bands after every structural or reserve
// change, never authoritative state.
type Market struct {
	Bands          []*Band
	GlobalReserves []float64
	TokenNames     []string
}

// NewMarket creates an empty market over the given token list.
func NewMarket(tokenNames []string) *Market {
	return &Market{
		GlobalReserves: make([]float64, len(tokenNames)),
		TokenNames:     append([]string(nil), tokenNames...),
	}
}

func (m *Market) recomputeGlobalReserves() {
	for i := range m.GlobalReserves {
		m.GlobalReserves[i] = 0
	}
	for _, band := range m.Bands {
		for i, x := range band.Pool.Reserves {
			m.GlobalReserves[i] += x
		}
	}
}

// AddBand constructs a new band over the market's token list and appends
// it.
func (m *Market) AddBand(planeConstant float64, reserves []float64) error {
	if len(reserves) != len(m.TokenNames) {
		return fmt.Errorf("%d reserves vs %d tokens: %w", len(reserves), len(m.TokenNames), ErrLengthMismatch)
	}
	band, err := NewBand(m.TokenNames, reserves, planeConstant)
	if err != nil {
		return err
	}
	m.Bands = append(m.Bands, band)
	m.recomputeGlobalReserves()
	return nil
}

// BandAt returns the band at index with bounds checking.
func (m *Market) BandAt(index int) (*Band, error) {
	if index < 0 || index >= len(m.Bands) {
		return nil, fmt.Errorf("index %d with %d bands: %w", index, len(m.Bands), ErrBandIndex)
	}
	return m.Bands[index], nil
}

// ClassifyBands returns the index sets of interior and boundary bands.
// Exterior bands appear in neither.
func (m *Market) ClassifyBands() (interior, boundary []int) {
	for i, band := range m.Bands {
		switch {
		case band.IsInterior():
			interior = append(interior, i)
		case band.IsBoundary():
			boundary = append(boundary, i)
		}
	}
	return interior, boundary
}

// RouteTrade greedily fills amount across bands in ascending plane-constant
// order, executing a local swap in each band until the request is filled.
//
// Routing is deliberately not atomic: bands swapped before a failure stay
// mutated, and the error reports the overall shortfall. Callers that need
// all-or-nothing semantics must snapshot and restore market state around
// the call. Global reserves are recomputed on every exit path.
func (m *Market) RouteTrade(from, to string, amount float64) (float64, error) {
	if from == to {
		return 0, fmt.Errorf("token %q: %w", from, ErrSameToken)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("trade amount %v: %w", amount, ErrInvalidAmount)
	}
	defer m.recomputeGlobalReserves()

	idxs := make([]int, len(m.Bands))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return m.Bands[idxs[a]].PlaneConstant < m.Bands[idxs[b]].PlaneConstant
	})

	var totalOutput float64
	remaining := amount
	for _, idx := range idxs {
		if remaining <= 0 {
			break
		}
		band := m.Bands[idx]
		fromIdx, err := band.Pool.IndexOf(from)
		if err != nil {
			return totalOutput, err
		}
		available := band.Pool.Reserves[fromIdx]
		if available <= epsilon {
			continue
		}
		tradeIn := math.Min(remaining, available*maxBandDrainRatio)
		if tradeIn <= 0 {
			continue
		}
		output, err := band.Pool.Swap(from, to, tradeIn)
		if err != nil {
			return totalOutput, fmt.Errorf("band %d: %w", idx, err)
		}
		remaining -= tradeIn
		totalOutput += output
	}

	if remaining > routeResidualTolerance {
		return totalOutput, fmt.Errorf("unfilled %v of %v: %w", remaining, amount, ErrInsufficientLiquidity)
	}
	return totalOutput, nil
}

// AggregatedPrice returns the spot price of to in units of from averaged
// across bands, weighted by each band's from-token reserve. Zero-weight
// bands are skipped.
func (m *Market) AggregatedPrice(from, to string) (float64, error) {
	var num, denom float64
	for _, band := range m.Bands {
		fromIdx, err := band.Pool.IndexOf(from)
		if err != nil {
			return 0, err
		}
		weight := band.Pool.Reserves[fromIdx]
		if weight == 0 {
			continue
		}
		price, err := band.Pool.SpotPrice(from, to)
		if err != nil {
			return 0, err
		}
		num += price * weight
		denom += weight
	}
	if denom == 0 {
		return 0, fmt.Errorf("token %q: %w", from, ErrNoLiquidityForPrice)
	}
	return num / denom, nil
}

// SetBandReserves overwrites one band's reserves and re-solves its radius,
// then refreshes the global projection. Administrative path.
func (m *Market) SetBandReserves(index int, reserves []float64) error {
	band, err := m.BandAt(index)
	if err != nil {
		return err
	}
	if err := band.Pool.SetReserves(reserves); err != nil {
		return err
	}
	m.recomputeGlobalReserves()
	return nil
}

// AddLiquidity deposits amounts into the band at index for lpID and keeps
// the global projection in sync.
func (m *Market) AddLiquidity(index int, lpID string, amounts []float64) error {
	band, err := m.BandAt(index)
	if err != nil {
		return err
	}
	if err := band.AddLiquidity(lpID, amounts); err != nil {
		return err
	}
	m.recomputeGlobalReserves()
	return nil
}

// WithdrawLiquidity removes percentage of lpID's position from the band at
// index, returning per-token withdrawn amounts and keeping the global
// projection in sync.
func (m *Market) WithdrawLiquidity(index int, lpID string, percentage float64) ([]float64, error) {
	band, err := m.BandAt(index)
	if err != nil {
		return nil, err
	}
	withdrawn, err := band.WithdrawLiquidity(lpID, percentage)
	if err != nil {
		return nil, err
	}
	m.recomputeGlobalReserves()
	return withdrawn, nil
}

// Reset drops every band. Band state is destroyed only here, at the
// aggregator level.
func (m *Market) Reset() {
	m.Bands = nil
	m.recomputeGlobalReserves()
}

// Reconfigure replaces the market's token list and drops all bands, since
// existing band pools no longer match the new identity.
func (m *Market) Reconfigure(tokenNames []string) {
	m.TokenNames = append([]string(nil), tokenNames...)
	m.Bands = nil
	m.GlobalReserves = make([]float64, len(tokenNames))
}

// ReconfigureWithBand replaces the token list and seeds one starting band.
// The replacement band is constructed before any existing state is
// dropped, so a rejected reconfigure leaves the market untouched.
func (m *Market) ReconfigureWithBand(tokenNames []string, planeConstant float64, reserves []float64) error {
	if len(reserves) != len(tokenNames) {
		return fmt.Errorf("%d reserves vs %d tokens: %w", len(reserves), len(tokenNames), ErrLengthMismatch)
	}
	band, err := NewBand(tokenNames, reserves, planeConstant)
	if err != nil {
		return err
	}
	m.TokenNames = append([]string(nil), tokenNames...)
	m.Bands = []*Band{band}
	m.GlobalReserves = make([]float64, len(tokenNames))
	m.recomputeGlobalReserves()
	return nil
}
