// Package model defines the persisted wire records shared by the storage,
// server, and dashboard layers.
package model

// SnapshotVersion is the current snapshot schema version. Bump only with a
// migration path for every existing store.
const SnapshotVersion = 1

// Snapshot is the versioned, schema-stable record of full market state.
// Float fields round-trip bit-identically through JSON.
type Snapshot struct {
	Version        int          `json:"version"`
	TokenNames     []string     `json:"token_names"`
	GlobalReserves []float64    `json:"global_reserves"`
	Bands          []BandRecord `json:"bands"`
	// SavedAt is stamped by stores on save; optional and informational.
	SavedAt string `json:"saved_at,omitempty"`
}

// BandRecord captures one liquidity band.
type BandRecord struct {
	PlaneConstant float64            `json:"plane_constant"`
	Radius        float64            `json:"radius"`
	Reserves      []float64          `json:"reserves"`
	TokenNames    []string           `json:"token_names"`
	LPShares      map[string]float64 `json:"lp_shares"`
}
