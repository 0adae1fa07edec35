package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMarket(t *testing.T) *Market {
	t.Helper()
	return NewMarket([]string{"USDC", "USDT"})
}

func requireGlobalsConsistent(t *testing.T, m *Market) {
	t.Helper()
	sums := make([]float64, len(m.TokenNames))
	for _, band := range m.Bands {
		for i, x := range band.Pool.Reserves {
			sums[i] += x
		}
	}
	for i := range sums {
		require.InDelta(t, sums[i], m.GlobalReserves[i], 1e-9)
	}
}

func TestMarketAddBand(t *testing.T) {
	m := newTestMarket(t)

	require.NoError(t, m.AddBand(50, []float64{100, 100}))
	require.NoError(t, m.AddBand(70, []float64{50, 50}))

	assert.Len(t, m.Bands, 2)
	assert.Equal(t, []float64{150, 150}, m.GlobalReserves)

	err := m.AddBand(90, []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Len(t, m.Bands, 2)
}

func TestMarketBandAt(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	band, err := m.BandAt(0)
	require.NoError(t, err)
	assert.Equal(t, 50.0, band.PlaneConstant)

	_, err = m.BandAt(1)
	require.ErrorIs(t, err, ErrBandIndex)
	_, err = m.BandAt(-1)
	require.ErrorIs(t, err, ErrBandIndex)
}

func TestRouteTradePrefersLowerPlaneConstant(t *testing.T) {
	m := newTestMarket(t)
	// Insertion order is the reverse of routing order.
	require.NoError(t, m.AddBand(70, []float64{50, 50}))
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	output, err := m.RouteTrade("USDC", "USDT", 30)
	require.NoError(t, err)
	assert.Greater(t, output, 0.0)

	// The plane-70 band is untouched; the plane-50 band absorbed the trade.
	assert.Equal(t, []float64{50, 50}, m.Bands[0].Pool.Reserves)
	assert.Equal(t, 130.0, m.Bands[1].Pool.Reserves[0])
	requireGlobalsConsistent(t, m)
	for _, band := range m.Bands {
		assert.True(t, band.Pool.CheckInvariant())
	}
}

func TestRouteTradeSpansBands(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))
	require.NoError(t, m.AddBand(70, []float64{100, 100}))

	// 150 exceeds the 90% drain cap of the first band, so both bands fill.
	output, err := m.RouteTrade("USDC", "USDT", 150)
	require.NoError(t, err)
	assert.Greater(t, output, 0.0)
	assert.Equal(t, 190.0, m.Bands[0].Pool.Reserves[0])
	assert.Equal(t, 160.0, m.Bands[1].Pool.Reserves[0])
	requireGlobalsConsistent(t, m)
	for _, band := range m.Bands {
		assert.True(t, band.Pool.CheckInvariant())
	}
}

func TestRouteTradeInsufficientLiquidity(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	// The drain cap limits the fill to 90, leaving 110 unfilled.
	output, err := m.RouteTrade("USDC", "USDT", 200)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	// Routing is not atomic: the partial fill stays applied and the global
	// projection reflects it.
	assert.Greater(t, output, 0.0)
	assert.Equal(t, 190.0, m.Bands[0].Pool.Reserves[0])
	requireGlobalsConsistent(t, m)
}

func TestRouteTradeInvalidInput(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	_, err := m.RouteTrade("USDC", "USDT", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = m.RouteTrade("USDC", "USDC", 10)
	require.ErrorIs(t, err, ErrSameToken)
	_, err = m.RouteTrade("WETH", "USDT", 10)
	require.ErrorIs(t, err, ErrTokenNotFound)
	assert.Equal(t, []float64{100, 100}, m.Bands[0].Pool.Reserves)
}

func TestRouteTradeSkipsEmptyBands(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{0, 100}))
	require.NoError(t, m.AddBand(70, []float64{100, 100}))

	output, err := m.RouteTrade("USDC", "USDT", 10)
	require.NoError(t, err)
	assert.Greater(t, output, 0.0)
	assert.Equal(t, []float64{0, 100}, m.Bands[0].Pool.Reserves)
	assert.Equal(t, 110.0, m.Bands[1].Pool.Reserves[0])
}

func TestClassifyBands(t *testing.T) {
	m := newTestMarket(t)
	// Reserves [100,100] project to ≈141.42.
	require.NoError(t, m.AddBand(100, []float64{100, 100}))
	require.NoError(t, m.AddBand(200, []float64{100, 100}))
	require.NoError(t, m.AddBand(141.4213562373095, []float64{100, 100}))

	interior, boundary := m.ClassifyBands()
	assert.Equal(t, []int{0}, interior)
	assert.Equal(t, []int{2}, boundary)
}

func TestAggregatedPriceBalanced(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))
	require.NoError(t, m.AddBand(70, []float64{500, 500}))

	price, err := m.AggregatedPrice("USDC", "USDT")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, price, 1e-9)
}

func TestAggregatedPriceWeighting(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))
	require.NoError(t, m.AddBand(70, []float64{150, 50}))

	p0, err := m.Bands[0].Pool.SpotPrice("USDC", "USDT")
	require.NoError(t, err)
	p1, err := m.Bands[1].Pool.SpotPrice("USDC", "USDT")
	require.NoError(t, err)
	want := (p0*100 + p1*150) / 250

	price, err := m.AggregatedPrice("USDC", "USDT")
	require.NoError(t, err)
	assert.InDelta(t, want, price, 1e-9)
}

func TestAggregatedPriceNoLiquidity(t *testing.T) {
	m := newTestMarket(t)
	_, err := m.AggregatedPrice("USDC", "USDT")
	require.ErrorIs(t, err, ErrNoLiquidityForPrice)

	// Zero-weight bands are skipped entirely.
	require.NoError(t, m.AddBand(50, []float64{0, 100}))
	_, err = m.AggregatedPrice("USDC", "USDT")
	require.ErrorIs(t, err, ErrNoLiquidityForPrice)
}

func TestMarketSetBandReserves(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))
	require.NoError(t, m.AddBand(70, []float64{100, 100}))

	require.NoError(t, m.SetBandReserves(1, []float64{300, 200}))
	assert.Equal(t, []float64{300, 200}, m.Bands[1].Pool.Reserves)
	assert.Equal(t, []float64{400, 300}, m.GlobalReserves)

	err := m.SetBandReserves(5, []float64{1, 1})
	require.ErrorIs(t, err, ErrBandIndex)
	err = m.SetBandReserves(0, []float64{1})
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestMarketLiquidityKeepsGlobalsInSync(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	require.NoError(t, m.AddLiquidity(0, "alice", []float64{50, 50}))
	assert.Equal(t, []float64{150, 150}, m.GlobalReserves)

	withdrawn, err := m.WithdrawLiquidity(0, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, withdrawn, 2)
	requireGlobalsConsistent(t, m)

	err = m.AddLiquidity(3, "alice", []float64{1, 1})
	require.ErrorIs(t, err, ErrBandIndex)
	_, err = m.WithdrawLiquidity(3, "alice", 1)
	require.ErrorIs(t, err, ErrBandIndex)
}

func TestMarketReset(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	m.Reset()
	assert.Empty(t, m.Bands)
	assert.Equal(t, []float64{0, 0}, m.GlobalReserves)
	assert.Equal(t, []string{"USDC", "USDT"}, m.TokenNames)
}

func TestReconfigureWithBand(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	require.NoError(t, m.ReconfigureWithBand([]string{"WETH", "WBTC"}, 5, []float64{10, 10}))
	assert.Equal(t, []string{"WETH", "WBTC"}, m.TokenNames)
	assert.Len(t, m.Bands, 1)
	assert.Equal(t, []float64{10, 10}, m.GlobalReserves)
}

func TestReconfigureWithBandValidatesBeforeCommit(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	// A single-token band cannot satisfy the invariant, so the whole
	// reconfigure is rejected and the existing market survives.
	err := m.ReconfigureWithBand([]string{"WETH"}, 5, []float64{10})
	require.ErrorIs(t, err, ErrInvalidReserves)
	assert.Equal(t, []string{"USDC", "USDT"}, m.TokenNames)
	assert.Len(t, m.Bands, 1)
	assert.Equal(t, []float64{100, 100}, m.GlobalReserves)

	err = m.ReconfigureWithBand([]string{"WETH", "WBTC"}, 5, []float64{10})
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Equal(t, []string{"USDC", "USDT"}, m.TokenNames)
}

func TestMarketReconfigure(t *testing.T) {
	m := newTestMarket(t)
	require.NoError(t, m.AddBand(50, []float64{100, 100}))

	m.Reconfigure([]string{"WETH", "WBTC", "DAI"})
	assert.Empty(t, m.Bands)
	assert.Equal(t, []string{"WETH", "WBTC", "DAI"}, m.TokenNames)
	assert.Equal(t, []float64{0, 0, 0}, m.GlobalReserves)

	require.NoError(t, m.AddBand(600, []float64{1000, 1000, 1000}))
	requireGlobalsConsistent(t, m)
}
