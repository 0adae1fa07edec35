// Package storage persists market snapshots between process invocations.
package storage

import (
	"context"

	"sphereswap/internal/model"
)

// Store loads and saves market snapshots. Load reports absence via its
// second return value rather than an error.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, bool, error)
	Save(ctx context.Context, snap model.Snapshot) error
}
