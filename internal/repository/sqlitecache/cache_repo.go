// Package sqlitecache provides the SQLite-backed local durable cache. It keeps
// a curated subset of each aggregate so a restart can resume without a network
// round trip.
package sqlitecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"

	_ "modernc.org/sqlite" // register sqlite driver
)

// CacheRepository implements domain.CacheRepository on a local SQLite file.
type CacheRepository struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*CacheRepository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS budget_cache (
			user_id    TEXT PRIMARY KEY,
			subset     TEXT NOT NULL,
			revision   INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &CacheRepository{db: db}, nil
}

// Close closes the cache database.
func (r *CacheRepository) Close() error {
	return r.db.Close()
}

// Get retrieves the cached subset for a user.
func (r *CacheRepository) Get(ctx context.Context, userID string) (*domain.CacheSubset, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT subset FROM budget_cache WHERE user_id = ?", userID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCacheMiss
		}
		return nil, err
	}

	var subset domain.CacheSubset
	if err := json.Unmarshal([]byte(raw), &subset); err != nil {
		// A corrupt row is treated as a miss so it gets overwritten on the
		// next save instead of wedging hydration.
		return nil, domain.ErrCacheMiss
	}
	return &subset, nil
}

// Put stores the cached subset for a user.
func (r *CacheRepository) Put(ctx context.Context, userID string, subset *domain.CacheSubset) error {
	raw, err := json.Marshal(subset)
	if err != nil {
		return fmt.Errorf("encoding cache subset: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO budget_cache (user_id, subset, revision, updated_at)
		VALUES (?, ?, ?, ?)`,
		userID, string(raw), subset.Revision, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Delete removes a user's cached subset.
func (r *CacheRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM budget_cache WHERE user_id = ?", userID)
	return err
}
