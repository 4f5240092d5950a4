package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eventpulse/client/internal/models"
)

// Supervisor owns the reconnection policy a Connection deliberately does not
// have. It constructs a fresh Connection after each terminal transport
// failure, re-applies the last requested mode, and bounds dial attempts with
// a rate limiter so a flapping server is not hammered.
type Supervisor struct {
	dialer  Dialer
	limiter *rate.Limiter
	logger  *slog.Logger

	mu          sync.Mutex
	mode        Mode
	conn        *Connection
	lastEvents  []models.Event
	everLoaded  bool
	subscribers []func()
}

// NewSupervisor builds a supervisor dialing url, permitting at most
// perMinute dial attempts per minute with the given burst.
func NewSupervisor(url string, perMinute, burst int, logger *slog.Logger) *Supervisor {
	return newSupervisor(WebsocketDialer(url), perMinute, burst, logger)
}

func newSupervisor(dialer Dialer, perMinute, burst int, logger *slog.Logger) *Supervisor {
	if perMinute <= 0 {
		perMinute = 12
	}
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		dialer:  dialer,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
		logger:  logger,
		mode:    ModeMainOnly,
	}
}

// Run keeps one live Connection until ctx is cancelled. It blocks.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		conn := New(s.dialer, s.Mode(), s.logger)

		s.mu.Lock()
		s.conn = conn
		for _, fn := range s.subscribers {
			conn.Subscribe(fn)
		}
		s.mu.Unlock()

		if err := conn.Open(ctx); err != nil {
			s.logger.Warn("feed dial failed", "error", err)
		}

		select {
		case <-ctx.Done():
			conn.Close()
			s.retain(conn)
			return ctx.Err()
		case <-conn.Done():
			s.retain(conn)
		}
	}
}

// retain keeps the last good snapshot so a reconnect gap never regresses the
// observable view into loading or error territory.
func (s *Supervisor) retain(conn *Connection) {
	view := conn.View()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !view.IsLoading && view.Err == "" {
		s.lastEvents = view.Events
		s.everLoaded = true
	}
}

// SetMode records the desired fetch mode and forwards it to the live
// connection when one exists.
func (s *Supervisor) SetMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.SetMode(mode)
	}
}

// Mode returns the desired fetch mode.
func (s *Supervisor) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// View reports the current connection's observable state. Before the first
// connection exists the view is loading. Once any connection has delivered a
// valid snapshot, later dial failures neither blank the event list nor set
// an error.
func (s *Supervisor) View() View {
	s.mu.Lock()
	conn := s.conn
	lastEvents := s.lastEvents
	everLoaded := s.everLoaded
	s.mu.Unlock()

	if conn == nil {
		if everLoaded {
			return View{Events: lastEvents}
		}
		return View{IsLoading: true}
	}

	view := conn.View()
	if everLoaded {
		view.Err = ""
		if view.IsLoading {
			view.IsLoading = false
			view.Events = lastEvents
		}
	}
	return view
}

// Subscribe registers fn to run after every observable change, on this and
// every future connection.
func (s *Supervisor) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Subscribe(fn)
	}
}
