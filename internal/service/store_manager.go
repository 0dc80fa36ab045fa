package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// StoreManager owns one BudgetStore per authenticated user. Stores are created
// lazily on first access and hydrated from the remote snapshot, falling back
// to the local cache and finally to defaults when neither is available.
type StoreManager struct {
	snapshots domain.SnapshotRepository
	cache     domain.CacheRepository
	publisher websocket.EventPublisher
	clock     util.Clock
	gate      *GateService
	debounce  time.Duration
	logger    zerolog.Logger

	mu     sync.Mutex
	stores map[string]*storeEntry
}

// storeEntry pairs a store with its one-shot hydration. All first-access
// callers funnel through the same Once, so none of them can observe (or
// mutate) the store before the initial load finished.
type storeEntry struct {
	store   *BudgetStore
	hydrate sync.Once
}

// NewStoreManager creates a new StoreManager.
func NewStoreManager(
	snapshots domain.SnapshotRepository,
	cache domain.CacheRepository,
	publisher websocket.EventPublisher,
	clock util.Clock,
	gate *GateService,
	debounce time.Duration,
	logger zerolog.Logger,
) *StoreManager {
	return &StoreManager{
		snapshots: snapshots,
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		gate:      gate,
		debounce:  debounce,
		logger:    logger.With().Str("component", "store_manager").Logger(),
		stores:    make(map[string]*storeEntry),
	}
}

// StoreFor returns the store for the given identity, creating and hydrating it
// on first access. Hydration order: remote snapshot, then local cache, then
// defaults. An unreachable remote never blocks the session.
func (m *StoreManager) StoreFor(ctx context.Context, identity domain.Identity) (*BudgetStore, error) {
	m.mu.Lock()
	entry, ok := m.stores[identity.ID]
	if !ok {
		entry = &storeEntry{store: m.newStore(identity)}
		m.stores[identity.ID] = entry
	}
	m.mu.Unlock()

	entry.hydrate.Do(func() {
		m.hydrate(ctx, entry.store, identity)
	})
	return entry.store, nil
}

// Peek returns the store for a user without creating one.
func (m *StoreManager) Peek(userID string) (*BudgetStore, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.stores[userID]
	if !ok {
		return nil, false
	}
	return entry.store, true
}

// Detach force-saves and drops a user's store, e.g. on logout.
func (m *StoreManager) Detach(ctx context.Context, userID string) error {
	m.mu.Lock()
	entry, ok := m.stores[userID]
	if ok {
		delete(m.stores, userID)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	err := entry.store.ForceSave(ctx)
	entry.store.Close()
	return err
}

// Shutdown force-saves every active store. Called on server shutdown so
// debounced writes are not lost.
func (m *StoreManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	stores := make([]*BudgetStore, 0, len(m.stores))
	for _, entry := range m.stores {
		stores = append(stores, entry.store)
	}
	m.stores = make(map[string]*storeEntry)
	m.mu.Unlock()

	var firstErr error
	for _, store := range stores {
		if err := store.ForceSave(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		store.Close()
	}
	return firstErr
}

// ActiveStores returns the number of hosted stores.
func (m *StoreManager) ActiveStores() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

func (m *StoreManager) newStore(identity domain.Identity) *BudgetStore {
	clock := m.clock
	rewards := NewRewardService(m.gate, clock, rand.New(rand.NewSource(clock.Now().UnixNano())))

	var store *BudgetStore
	store = NewBudgetStore(identity, BudgetStoreDeps{
		Recurrence: NewRecurrenceService(),
		Gate:       m.gate,
		Rewards:    rewards,
		Clock:      clock,
		Publisher:  m.publisher,
		Persist: func(ctx context.Context, snapshot *domain.BudgetAggregate) error {
			return m.persist(ctx, store, snapshot)
		},
		Debounce: m.debounce,
		Logger:   m.logger,
	})
	return store
}

// persist is the store's save callback: the remote snapshot write is
// authoritative, the local cache write is best effort. A stale-revision
// rejection normally means a newer revision from another device already won,
// and losing this write is correct. When the store came up on fallback state
// its revision counter may simply be behind the remote copy, so the same
// rejection is surfaced instead of masked.
func (m *StoreManager) persist(ctx context.Context, store *BudgetStore, snapshot *domain.BudgetAggregate) error {
	userID := snapshot.Identity.ID
	err := m.snapshots.Save(ctx, userID, snapshot)
	switch {
	case err == nil:
		store.confirmRemoteWrite()
	case errors.Is(err, domain.ErrStaleSnapshot):
		if store.loadDegraded() {
			m.logger.Error().Str("user_id", userID).Int64("revision", snapshot.Revision).
				Msg("Stale snapshot write rejected while on fallback state")
		} else {
			m.logger.Warn().Str("user_id", userID).Int64("revision", snapshot.Revision).
				Msg("Dropped stale snapshot write")
			err = nil
		}
	}
	if cacheErr := m.cache.Put(ctx, userID, snapshot.CacheView()); cacheErr != nil {
		m.logger.Warn().Err(cacheErr).Str("user_id", userID).Msg("Local cache write failed")
	}
	return err
}

func (m *StoreManager) hydrate(ctx context.Context, store *BudgetStore, identity domain.Identity) {
	snapshot, err := m.snapshots.Get(ctx, identity.ID)
	if err == nil {
		store.Hydrate(snapshot)
		m.logger.Info().Str("user_id", identity.ID).Int64("revision", snapshot.Revision).
			Msg("Hydrated store from remote snapshot")
		return
	}

	// An absent snapshot is a clean first login; anything else means the
	// remote copy exists but could not be read, and the session must say so.
	remoteFailed := !errors.Is(err, domain.ErrSnapshotNotFound)
	if remoteFailed {
		m.logger.Warn().Err(err).Str("user_id", identity.ID).Msg("Remote snapshot load failed; trying local cache")
	}

	if subset, cacheErr := m.cache.Get(ctx, identity.ID); cacheErr == nil {
		partial := domain.NewBudgetAggregate()
		partial.Subscription = subset.Subscription
		partial.Gamification = subset.Gamification
		partial.Revision = subset.Revision
		partial.UpdatedAt = subset.UpdatedAt
		store.Hydrate(partial)
		m.logger.Info().Str("user_id", identity.ID).Msg("Hydrated store from local cache")
	} else {
		store.Hydrate(nil)
		m.logger.Info().Str("user_id", identity.ID).Msg("Hydrated store with defaults")
	}

	if remoteFailed {
		store.markLoadDegraded()
	}
}
