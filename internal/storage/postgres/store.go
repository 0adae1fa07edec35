// Package postgres stores market snapshots in Postgres, one row per named
// market. Expected schema:
//
//	CREATE TABLE amm_snapshots (
//	    name       text PRIMARY KEY,
//	    version    int NOT NULL,
//	    payload    jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL
//	);
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sphereswap/internal/model"
)

// Store provides Postgres persistence for one named market snapshot.
type Store struct {
	pool *pgxpool.Pool
	name string
}

func NewStore(ctx context.Context, dsn, name string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if name == "" {
		return nil, fmt.Errorf("market name is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, name: name}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Load(ctx context.Context) (model.Snapshot, bool, error) {
	var payload []byte
	row := s.pool.QueryRow(ctx, `SELECT payload FROM amm_snapshots WHERE name=$1`, s.name)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	snap.SavedAt = time.Now().UTC().Format(time.RFC3339Nano)
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO amm_snapshots (name, version, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET version = EXCLUDED.version, payload = EXCLUDED.payload, updated_at = now()
	`, s.name, snap.Version, payload)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
