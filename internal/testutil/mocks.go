package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
)

// MockSnapshotRepository is a mock implementation of domain.SnapshotRepository
type MockSnapshotRepository struct {
	mu        sync.Mutex
	Snapshots map[string]*domain.BudgetAggregate
	SaveCalls int
	GetFn     func(ctx context.Context, userID string) (*domain.BudgetAggregate, error)
	SaveFn    func(ctx context.Context, userID string, snapshot *domain.BudgetAggregate) error
}

// NewMockSnapshotRepository creates a new MockSnapshotRepository
func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{
		Snapshots: make(map[string]*domain.BudgetAggregate),
	}
}

// Get retrieves a snapshot by user ID
func (m *MockSnapshotRepository) Get(ctx context.Context, userID string) (*domain.BudgetAggregate, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if snapshot, ok := m.Snapshots[userID]; ok {
		return snapshot.Clone(), nil
	}
	return nil, domain.ErrSnapshotNotFound
}

// Save stores a snapshot, rejecting revisions older than the stored one
func (m *MockSnapshotRepository) Save(ctx context.Context, userID string, snapshot *domain.BudgetAggregate) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, userID, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if existing, ok := m.Snapshots[userID]; ok && existing.Revision > snapshot.Revision {
		return domain.ErrStaleSnapshot
	}
	m.Snapshots[userID] = snapshot.Clone()
	return nil
}

// SaveCount returns the number of Save calls observed (helper for tests)
func (m *MockSnapshotRepository) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SaveCalls
}

// Stored returns the stored snapshot for a user (helper for tests)
func (m *MockSnapshotRepository) Stored(userID string) *domain.BudgetAggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Snapshots[userID]
}

// AddSnapshot seeds a snapshot into the mock repository (helper for tests)
func (m *MockSnapshotRepository) AddSnapshot(userID string, snapshot *domain.BudgetAggregate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots[userID] = snapshot
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	Subsets  map[string]*domain.CacheSubset
	PutCalls int
	GetFn    func(ctx context.Context, userID string) (*domain.CacheSubset, error)
	PutFn    func(ctx context.Context, userID string, subset *domain.CacheSubset) error
}

// NewMockCacheRepository creates a new MockCacheRepository
func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		Subsets: make(map[string]*domain.CacheSubset),
	}
}

// Get retrieves a cached subset by user ID
func (m *MockCacheRepository) Get(ctx context.Context, userID string) (*domain.CacheSubset, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if subset, ok := m.Subsets[userID]; ok {
		return subset, nil
	}
	return nil, domain.ErrCacheMiss
}

// Put stores a cached subset
func (m *MockCacheRepository) Put(ctx context.Context, userID string, subset *domain.CacheSubset) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, userID, subset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	m.Subsets[userID] = subset
	return nil
}

// Delete removes a cached subset
func (m *MockCacheRepository) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Subsets, userID)
	return nil
}

// MockBackupRepository is a mock implementation of domain.BackupRepository
type MockBackupRepository struct {
	mu       sync.Mutex
	Uploads  map[string][]byte
	UploadFn func(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// NewMockBackupRepository creates a new MockBackupRepository
func NewMockBackupRepository() *MockBackupRepository {
	return &MockBackupRepository{
		Uploads: make(map[string][]byte),
	}
}

// Upload stores the payload under the given key
func (m *MockBackupRepository) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, key, data, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads[key] = data
	return "https://backups.example.com/" + key, nil
}

// PresignedURL returns a fake presigned URL for the key
func (m *MockBackupRepository) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Uploads[key]; !ok {
		return "", domain.ErrNotFound
	}
	return "https://backups.example.com/" + key + "?signed=1", nil
}

// fakeTimer is a pending FakeClock callback
type fakeTimer struct {
	clock   *FakeClock
	id      int
	due     time.Time
	fn      func()
	stopped bool
}

// Stop cancels the timer if it has not fired yet
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	delete(t.clock.timers, t.id)
	return true
}

// FakeClock is a manually advanced util.Clock for deterministic tests.
// AfterFunc callbacks run synchronously inside Advance once their due time is
// reached.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers map[int]*fakeTimer
}

// NewFakeClock creates a FakeClock starting at the given instant
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{
		now:    start,
		timers: make(map[int]*fakeTimer),
	}
}

// Now returns the fake current time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn to run when the clock advances past d
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) util.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &fakeTimer{
		clock: c,
		id:    c.nextID,
		due:   c.now.Add(d),
		fn:    fn,
	}
	c.timers[t.id] = t
	return t
}

// Advance moves the clock forward and fires every timer whose due time has
// been reached, in due order
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.due.After(c.now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
	for _, t := range due {
		t.stopped = true
		delete(c.timers, t.id)
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// SetNow jumps the clock to an absolute instant without firing timers
// (helper for calendar-day tests)
func (c *FakeClock) SetNow(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// PendingTimers returns the number of armed timers (helper for tests)
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
