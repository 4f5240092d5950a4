package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/eventpulse/client/internal/models"
)

// Mode selects which slice of the catalog a connection subscribes to.
type Mode string

const (
	ModeMainOnly Mode = "main-only"
	ModeAll      Mode = "all"
	ModeSubOnly  Mode = "sub-only"
)

// command maps a mode onto the wire command understood by the server.
func (m Mode) command() string {
	switch m {
	case ModeAll:
		return "get_all_events"
	case ModeSubOnly:
		return "get_sub_events"
	default:
		return "get_events"
	}
}

// State tracks the connection lifecycle.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

// Socket is the minimal transport surface a Connection needs. The production
// implementation is *websocket.Conn; tests substitute fakes.
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer establishes a Socket. It is invoked once per Connection.
type Dialer func(ctx context.Context) (Socket, error)

// WebsocketDialer returns a Dialer connecting to the given websocket URL.
func WebsocketDialer(url string) Dialer {
	return func(ctx context.Context) (Socket, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// View is the externally observable result of a connection. Err stays empty
// once any valid snapshot has been received for the life of the connection,
// so transient transport failures never regress a populated screen into an
// error state.
type View struct {
	Events      []models.Event
	IsConnected bool
	IsLoading   bool
	Err         string
}

// Connection manages one push-channel subscription. Every inbound message is
// a full catalog snapshot that replaces the previous one; there is no
// incremental diffing. A Connection never redials: reconnection belongs to
// the owner constructing a fresh instance (see Supervisor).
type Connection struct {
	dialer Dialer
	logger *slog.Logger

	mu          sync.Mutex
	sock        Socket
	state       State
	mode        Mode
	events      []models.Event
	gotSnapshot bool
	errMsg      string
	closed      bool
	subscribers []func()

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a closed connection that will request the given mode on open.
func New(dialer Dialer, mode Mode, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connection{
		dialer: dialer,
		logger: logger,
		mode:   mode,
		done:   make(chan struct{}),
	}
}

// Open dials the transport, issues the request command for the current mode,
// and starts consuming snapshots. It returns the dial error, if any; once the
// connection is open, later transport failures only surface through View.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("feed: connection already closed")
	}
	if c.state != StateClosed {
		c.mu.Unlock()
		return errors.New("feed: connection already open")
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.notify()

	sock, err := c.dialer(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateClosed
		if !c.gotSnapshot {
			c.errMsg = "unable to reach event feed"
		}
		c.mu.Unlock()
		c.markDone()
		c.notify()
		return err
	}

	// The mode is re-read here, not captured before the dial: a SetMode
	// issued while Connecting must win, so the command sent on entering
	// Open always matches the currently desired mode.
	c.mu.Lock()
	c.sock = sock
	c.state = StateOpen
	mode := c.mode
	c.mu.Unlock()
	c.notify()

	if err := sock.WriteMessage(websocket.TextMessage, []byte(mode.command())); err != nil {
		c.logger.Warn("feed request command failed", "mode", string(mode), "error", err)
	}

	go c.readLoop(sock)
	return nil
}

// SetMode changes the requested fetch mode. While open, the corresponding
// command is re-issued on the same connection; no redial happens.
func (c *Connection) SetMode(mode Mode) {
	c.mu.Lock()
	c.mode = mode
	sock := c.sock
	open := c.state == StateOpen
	c.mu.Unlock()

	if open && sock != nil {
		if err := sock.WriteMessage(websocket.TextMessage, []byte(mode.command())); err != nil {
			c.logger.Warn("feed request command failed", "mode", string(mode), "error", err)
		}
	}
	c.notify()
}

// Mode returns the currently requested fetch mode.
func (c *Connection) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// View reports the current observable state.
func (c *Connection) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Events:      c.events,
		IsConnected: c.state == StateOpen,
		IsLoading:   !c.gotSnapshot && c.errMsg == "",
		Err:         c.errMsg,
	}
}

// Subscribe registers fn to run after every observable change and returns a
// function that removes the registration.
func (c *Connection) Subscribe(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
	index := len(c.subscribers) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if index < len(c.subscribers) {
			c.subscribers[index] = nil
		}
	}
}

// Close tears the connection down. It is terminal: the connection never
// reopens and no reconnection is attempted on its behalf.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = StateClosed
	sock := c.sock
	c.mu.Unlock()

	if sock != nil {
		_ = sock.Close()
	}
	c.markDone()
	c.notify()
}

// Done is closed once the connection has terminated, whether by explicit
// Close or by a transport failure.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) readLoop(sock Socket) {
	for {
		_, payload, err := sock.ReadMessage()
		if err != nil {
			c.mu.Lock()
			explicit := c.closed
			c.state = StateClosed
			if !explicit && !c.gotSnapshot {
				c.errMsg = "event feed connection lost"
			}
			c.mu.Unlock()
			if !explicit {
				c.logger.Warn("feed connection lost", "error", err)
			}
			c.markDone()
			c.notify()
			return
		}

		var snapshot []models.Event
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			// A malformed snapshot is dropped; the connection stays up and
			// the previous snapshot remains visible.
			c.logger.Warn("feed snapshot decode failed", "error", err)
			continue
		}

		c.mu.Lock()
		c.events = snapshot
		c.gotSnapshot = true
		c.errMsg = ""
		c.mu.Unlock()
		c.notify()
	}
}

func (c *Connection) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Connection) notify() {
	c.mu.Lock()
	subscribers := make([]func(), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subscribers {
		if fn != nil {
			fn()
		}
	}
}
