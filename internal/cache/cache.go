package cache

import (
	"context"
	"time"

	"stockledger/internal/domain"
)

// SnapshotCache memoizes computed inventory snapshots. Keys embed the ledger
// version, so a cached snapshot can never be served across a mutation.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]domain.InventorySnapshot, bool, error)
	Set(ctx context.Context, key string, rows []domain.InventorySnapshot, ttl time.Duration) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ string) ([]domain.InventorySnapshot, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ []domain.InventorySnapshot, _ time.Duration) error {
	return nil
}
