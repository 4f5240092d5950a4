package cooldown

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/eventpulse/client/internal/clock"
	"github.com/eventpulse/client/internal/store"
)

// Scheduler gates one expensive action behind a fixed-duration cooldown that
// survives process restarts. The only persisted state is an absolute expiry
// timestamp; the remaining time is always recomputed from it, so a restart
// resumes the countdown instead of re-arming a fresh window.
type Scheduler struct {
	store    store.Store
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	expiry time.Time
	stop   chan struct{}

	subscribers []func()
}

// NewScheduler builds a scheduler and resumes a persisted countdown when one
// exists. An expiry already in the past is cleared immediately.
func NewScheduler(st store.Store, clk clock.Clock, logger *slog.Logger) *Scheduler {
	return newScheduler(st, clk, time.Second, logger)
}

func newScheduler(st store.Store, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		store:    st,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
	s.resume()
	return s
}

// Start arms the cooldown for the given duration, persists the absolute
// expiry, and begins ticking toward it.
func (s *Scheduler) Start(duration time.Duration) {
	expiry := s.clock.Now().Add(duration)
	s.store.Set(store.KeyCooldownExpiry, strconv.FormatInt(expiry.UnixMilli(), 10))

	s.mu.Lock()
	s.expiry = expiry
	s.startTickingLocked()
	s.mu.Unlock()
	s.notify()
}

// Remaining returns the whole seconds left, never negative. It is computed
// from the persisted deadline on every call rather than counted down.
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	expiry := s.expiry
	s.mu.Unlock()

	if expiry.IsZero() {
		return 0
	}
	left := expiry.Sub(s.clock.Now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Active reports whether a cooldown is currently running.
func (s *Scheduler) Active() bool {
	return s.Remaining() > 0
}

// Stop cancels the tick without clearing persisted state, so a restart still
// observes the correct remaining time.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopTickingLocked()
	s.mu.Unlock()
}

// Clear drops the cooldown entirely: tick cancelled, persisted expiry gone.
func (s *Scheduler) Clear() {
	s.store.Delete(store.KeyCooldownExpiry)

	s.mu.Lock()
	s.expiry = time.Time{}
	s.stopTickingLocked()
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after every tick and on expiry.
func (s *Scheduler) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// resume restores a persisted countdown at construction time.
func (s *Scheduler) resume() {
	value, ok := s.store.Get(store.KeyCooldownExpiry)
	if !ok {
		return
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		s.logger.Warn("discarding malformed cooldown expiry", "value", value)
		s.store.Delete(store.KeyCooldownExpiry)
		return
	}

	expiry := time.UnixMilli(millis)
	if !expiry.After(s.clock.Now()) {
		s.store.Delete(store.KeyCooldownExpiry)
		return
	}

	s.mu.Lock()
	s.expiry = expiry
	s.startTickingLocked()
	s.mu.Unlock()
}

func (s *Scheduler) startTickingLocked() {
	if s.stop != nil {
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	go s.run(stop)
}

func (s *Scheduler) stopTickingLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Scheduler) run(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.Remaining() > 0 {
				s.notify()
				continue
			}

			s.store.Delete(store.KeyCooldownExpiry)
			s.mu.Lock()
			s.expiry = time.Time{}
			// The countdown ended on its own; this goroutine is exiting, so
			// only drop the handle if it still refers to this run.
			if s.stop == stop {
				s.stop = nil
			}
			s.mu.Unlock()
			s.notify()
			return
		}
	}
}

func (s *Scheduler) notify() {
	s.mu.Lock()
	subscribers := make([]func(), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		if fn != nil {
			fn()
		}
	}
}
