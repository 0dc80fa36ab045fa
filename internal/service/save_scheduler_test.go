package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveRecorder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *saveRecorder) save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *saveRecorder) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func setupScheduler(delay time.Duration) (*SaveScheduler, *testutil.FakeClock, *saveRecorder) {
	clock := testutil.NewFakeClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	rec := &saveRecorder{}
	sched := NewSaveScheduler(clock, delay, rec.save, zerolog.Nop())
	return sched, clock, rec
}

func TestScheduler_DebounceCoalescesBurst(t *testing.T) {
	sched, clock, rec := setupScheduler(500 * time.Millisecond)

	// Ten rapid mutations within the window produce a single write.
	for i := 0; i < 10; i++ {
		sched.Schedule()
		clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 0, rec.count())

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestScheduler_ScheduleRearmsWindow(t *testing.T) {
	sched, clock, rec := setupScheduler(500 * time.Millisecond)

	sched.Schedule()
	clock.Advance(400 * time.Millisecond)
	require.Equal(t, 0, rec.count())

	// Re-arming 100ms before expiry pushes the write out another 500ms.
	sched.Schedule()
	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestScheduler_SeparateBurstsSeparateWrites(t *testing.T) {
	sched, clock, rec := setupScheduler(500 * time.Millisecond)

	sched.Schedule()
	clock.Advance(600 * time.Millisecond)
	sched.Schedule()
	clock.Advance(600 * time.Millisecond)

	assert.Equal(t, 2, rec.count())
}

func TestScheduler_FlushBypassesDebounce(t *testing.T) {
	sched, clock, rec := setupScheduler(500 * time.Millisecond)

	sched.Schedule()
	require.NoError(t, sched.Flush(context.Background()))
	assert.Equal(t, 1, rec.count())

	// The pending timer was cleared: nothing fires later.
	clock.Advance(time.Second)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 0, clock.PendingTimers())
}

func TestScheduler_FlushWithoutPendingTimer(t *testing.T) {
	sched, _, rec := setupScheduler(500 * time.Millisecond)

	require.NoError(t, sched.Flush(context.Background()))
	assert.Equal(t, 1, rec.count())
}

func TestScheduler_StopCancelsWithoutWriting(t *testing.T) {
	sched, clock, rec := setupScheduler(500 * time.Millisecond)

	sched.Schedule()
	sched.Stop()
	clock.Advance(time.Second)

	assert.Equal(t, 0, rec.count())
}

func TestScheduler_StateTransitions(t *testing.T) {
	sched, clock, rec := setupScheduler(500 * time.Millisecond)

	var transitions []ConnectionState
	sched.OnStateChange(func(state ConnectionState) {
		transitions = append(transitions, state)
	})

	assert.Equal(t, ConnectionUnknown, sched.State())

	// First write succeeds.
	sched.Schedule()
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, ConnectionConnected, sched.State())

	// Remote goes away.
	rec.setErr(errors.New("connection refused"))
	sched.Schedule()
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, ConnectionDegraded, sched.State())

	// Remote comes back.
	rec.setErr(nil)
	sched.Schedule()
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, ConnectionConnected, sched.State())

	assert.Equal(t, []ConnectionState{ConnectionConnected, ConnectionDegraded, ConnectionConnected}, transitions)
}

func TestScheduler_ListenerNotFiredOnSameState(t *testing.T) {
	sched, clock, _ := setupScheduler(500 * time.Millisecond)

	fired := 0
	sched.OnStateChange(func(ConnectionState) { fired++ })

	for i := 0; i < 3; i++ {
		sched.Schedule()
		clock.Advance(500 * time.Millisecond)
	}

	// Three successful writes, one transition to connected.
	assert.Equal(t, 1, fired)
}

func TestScheduler_FlushReturnsSaveError(t *testing.T) {
	sched, _, rec := setupScheduler(500 * time.Millisecond)

	wantErr := errors.New("write timeout")
	rec.setErr(wantErr)

	err := sched.Flush(context.Background())
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, ConnectionDegraded, sched.State())
}

func TestScheduler_ZeroDelayUsesDefault(t *testing.T) {
	sched, clock, rec := setupScheduler(0)

	sched.Schedule()
	clock.Advance(DefaultSaveDebounce - time.Millisecond)
	assert.Equal(t, 0, rec.count())
	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, rec.count())
}
