package amm

import (
	"fmt"

	"sphereswap/internal/model"
)

// Snapshot captures the full market state as a versioned record suitable
// for persistence.
func (m *Market) Snapshot() model.Snapshot {
	bands := make([]model.BandRecord, 0, len(m.Bands))
	for _, band := range m.Bands {
		bands = append(bands, model.BandRecord{
			PlaneConstant: band.PlaneConstant,
			Radius:        band.Pool.Radius,
			Reserves:      append([]float64(nil), band.Pool.Reserves...),
			TokenNames:    append([]string(nil), band.Pool.TokenNames...),
			LPShares:      copyShares(band.LPShares),
		})
	}
	return model.Snapshot{
		Version:        model.SnapshotVersion,
		TokenNames:     append([]string(nil), m.TokenNames...),
		GlobalReserves: append([]float64(nil), m.GlobalReserves...),
		Bands:          bands,
	}
}

// FromSnapshot rebuilds a market from a persisted snapshot. Radii are
// taken from the record verbatim rather than re-solved, so round-tripped
// floating-point state stays bit-identical. The global reserve projection
// is recomputed from the bands, never trusted from the record.
func FromSnapshot(snap model.Snapshot) (*Market, error) {
	if snap.Version != model.SnapshotVersion {
		return nil, fmt.Errorf("version %d, supported %d: %w", snap.Version, model.SnapshotVersion, ErrSnapshotVersion)
	}
	m := NewMarket(snap.TokenNames)
	for i, rec := range snap.Bands {
		if len(rec.Reserves) != len(rec.TokenNames) {
			return nil, fmt.Errorf("band %d: %d reserves vs %d tokens: %w", i, len(rec.Reserves), len(rec.TokenNames), ErrLengthMismatch)
		}
		if err := sameTokenList(snap.TokenNames, rec.TokenNames); err != nil {
			return nil, fmt.Errorf("band %d: %w", i, err)
		}
		pool := &Pool{
			Radius:     rec.Radius,
			Reserves:   append([]float64(nil), rec.Reserves...),
			TokenNames: append([]string(nil), rec.TokenNames...),
		}
		// A record whose reserves sit off the stored sphere would make the
		// first swap trip the invariant fault; reject it at load instead.
		if !pool.CheckInvariant() {
			return nil, fmt.Errorf("band %d: radius %v reserves %v: %w", i, rec.Radius, rec.Reserves, ErrInvalidReserves)
		}
		m.Bands = append(m.Bands, &Band{
			Pool:          pool,
			PlaneConstant: rec.PlaneConstant,
			LPShares:      copyShares(rec.LPShares),
		})
	}
	m.recomputeGlobalReserves()
	return m, nil
}

// sameTokenList enforces the market identity contract: every band's pool
// must carry the same tokens in the same order.
func sameTokenList(market, band []string) error {
	if len(market) != len(band) {
		return fmt.Errorf("%d band tokens vs %d market tokens: %w", len(band), len(market), ErrLengthMismatch)
	}
	for i := range market {
		if market[i] != band[i] {
			return fmt.Errorf("band token %q at position %d, market has %q", band[i], i, market[i])
		}
	}
	return nil
}

func copyShares(shares map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(shares))
	for id, s := range shares {
		out[id] = s
	}
	return out
}
