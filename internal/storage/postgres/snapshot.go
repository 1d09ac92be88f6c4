package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
)

var _ cart.Storage = (*SnapshotStore)(nil)

const (
	loadSnapshotSQL = `SELECT data::text FROM cart_snapshots WHERE key = $1`
	saveSnapshotSQL = `
INSERT INTO cart_snapshots (key, data, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
)

// SnapshotStore keeps cart snapshots in the cart_snapshots table, one row
// per key.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore returns a SnapshotStore that uses the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Load returns the snapshot stored under key, or cart.ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	if err := s.pool.QueryRow(ctx, loadSnapshotSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("loading cart snapshot %q: %w", key, err)
	}
	return []byte(data), nil
}

// Save upserts the snapshot stored under key.
func (s *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, saveSnapshotSQL, key, string(data)); err != nil {
		return fmt.Errorf("saving cart snapshot %q: %w", key, err)
	}
	return nil
}
