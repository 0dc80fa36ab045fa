package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepository implements domain.SnapshotRepository using PostgreSQL.
// The whole aggregate is stored as one JSONB document per user; the revision
// column mirrors the document's revision so the guard can run in SQL.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// EnsureSchema creates the snapshot table if it does not exist
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS budget_snapshots (
			user_id    TEXT PRIMARY KEY,
			snapshot   JSONB NOT NULL,
			revision   BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating budget_snapshots table: %w", err)
	}
	return nil
}

// Get retrieves the stored snapshot for a user
func (r *SnapshotRepository) Get(ctx context.Context, userID string) (*domain.BudgetAggregate, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT snapshot FROM budget_snapshots WHERE user_id = $1`, userID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}

	var agg domain.BudgetAggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &agg, nil
}

// Save upserts the snapshot, rejecting writes whose revision is older than the
// stored one. The guard lives in the UPDATE's WHERE clause so two concurrent
// writers cannot interleave around it.
func (r *SnapshotRepository) Save(ctx context.Context, userID string, snapshot *domain.BudgetAggregate) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO budget_snapshots (user_id, snapshot, revision, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot,
		    revision = EXCLUDED.revision,
		    updated_at = now()
		WHERE budget_snapshots.revision <= EXCLUDED.revision`,
		userID, raw, snapshot.Revision)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleSnapshot
	}
	return nil
}

// Delete removes a user's snapshot
func (r *SnapshotRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM budget_snapshots WHERE user_id = $1`, userID)
	return err
}
