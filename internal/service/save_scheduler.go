package service

import (
	"context"
	"sync"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
	"github.com/rs/zerolog"
)

// ConnectionState tracks remote persistence health. It never blocks mutators;
// the aggregate stays fully mutable in every state.
type ConnectionState string

const (
	ConnectionUnknown   ConnectionState = "unknown"
	ConnectionConnected ConnectionState = "connected"
	ConnectionDegraded  ConnectionState = "degraded"
)

// DefaultSaveDebounce is the delay a burst of mutations is coalesced over.
const DefaultSaveDebounce = 500 * time.Millisecond

// SaveFunc performs one remote write of the current snapshot. It must capture
// the snapshot itself at call time so the write always reflects the latest
// state, not the state when scheduling was requested.
type SaveFunc func(ctx context.Context) error

// StateListener is notified when the connection state changes.
type StateListener func(state ConnectionState)

// SaveScheduler debounces persistence: every schedule call (re)arms a single
// timer, and only the last mutation in a burst triggers a write. Writes are
// serialized through a mutex so two overlapping saves can never complete out
// of order and let a stale snapshot win.
type SaveScheduler struct {
	clock    util.Clock
	delay    time.Duration
	save     SaveFunc
	logger   zerolog.Logger
	listener StateListener

	mu    sync.Mutex
	timer util.Timer
	state ConnectionState

	// writeMu serializes remote writes; the debounce timer never cancels an
	// in-flight write, it just waits its turn.
	writeMu sync.Mutex
}

// NewSaveScheduler creates a new SaveScheduler. delay <= 0 selects the
// default debounce window.
func NewSaveScheduler(clock util.Clock, delay time.Duration, save SaveFunc, logger zerolog.Logger) *SaveScheduler {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	return &SaveScheduler{
		clock:  clock,
		delay:  delay,
		save:   save,
		logger: logger.With().Str("component", "save_scheduler").Logger(),
		state:  ConnectionUnknown,
	}
}

// OnStateChange registers a listener invoked whenever the connection state
// flips. Used to push the offline indicator to clients.
func (s *SaveScheduler) OnStateChange(fn StateListener) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Schedule (re)arms the debounce timer. A call before the timer fires cancels
// and restarts it; only the last call in a burst leads to a write.
func (s *SaveScheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.fire(context.Background())
	})
}

// Flush bypasses the debounce: it clears any pending timer and performs the
// write synchronously relative to the caller.
func (s *SaveScheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return s.doSave(ctx)
}

// Stop cancels any pending debounce timer without writing.
func (s *SaveScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// MarkDegraded forces the degraded state without attempting a write. Used
// when the initial load already shows the remote store is unreachable.
func (s *SaveScheduler) MarkDegraded() {
	s.setState(ConnectionDegraded)
}

// State returns the current connection health.
func (s *SaveScheduler) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// fire runs on timer expiry. Failures are swallowed on purpose: a durable
// local copy exists, so a failed remote write only degrades the connection
// state instead of surfacing a user-facing error.
func (s *SaveScheduler) fire(ctx context.Context) {
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()

	if err := s.doSave(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Deferred save failed; keeping local state authoritative")
	}
}

func (s *SaveScheduler) doSave(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.save(ctx)
	if err != nil {
		s.setState(ConnectionDegraded)
		return err
	}
	s.setState(ConnectionConnected)
	return nil
}

func (s *SaveScheduler) setState(state ConnectionState) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	listener := s.listener
	s.mu.Unlock()

	if changed {
		s.logger.Info().Str("state", string(state)).Msg("Connection state changed")
		if listener != nil {
			listener(state)
		}
	}
}
