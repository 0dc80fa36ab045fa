package domain

import (
	"context"
	"time"
)

// SnapshotRepository is the remote budget store. Save must reject snapshots
// whose revision is older than the stored one (last-writer-wins by revision,
// not by wall clock).
type SnapshotRepository interface {
	Get(ctx context.Context, userID string) (*BudgetAggregate, error)
	Save(ctx context.Context, userID string, snapshot *BudgetAggregate) error
}

// CacheRepository is the local durable cache mirroring a curated subset of the
// aggregate, keyed by user ID.
type CacheRepository interface {
	Get(ctx context.Context, userID string) (*CacheSubset, error)
	Put(ctx context.Context, userID string, subset *CacheSubset) error
	Delete(ctx context.Context, userID string) error
}

// BackupRepository stores snapshot exports in object storage.
type BackupRepository interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
