// Package transport maintains the persistent duplex text connection to the
// ChronoSync server: dialing, keep-alive, the receive loop, and automatic
// reconnection with exponential backoff.
package transport

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// State is the connection lifecycle phase.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// EventKind discriminates transport notifications.
type EventKind int

const (
	// EventConnected fires after a successful dial.
	EventConnected EventKind = iota
	// EventDisconnected fires on remote close or explicit disconnect.
	EventDisconnected
	// EventError fires on unexpected transport failures.
	EventError
	// EventMessage carries one complete inbound text frame, unparsed.
	EventMessage
)

// Event is delivered on the single events channel so all consumers observe
// transport activity from one goroutine.
type Event struct {
	Kind EventKind
	Text string // raw frame for EventMessage, error text for EventError
}

// Options configures a Conn.
type Options struct {
	APIKey            string
	AutoReconnect     bool
	ReconnectMinDelay time.Duration
	ReconnectMaxDelay time.Duration
	KeepAliveInterval time.Duration
	WriteTimeout      time.Duration
}

// Conn is one logical duplex channel to one server endpoint. At most one
// underlying socket is active at a time; reconnect attempts are serialized
// by the scheduled guard.
type Conn struct {
	endpoint string
	opts     Options
	log      *zerolog.Logger

	events chan Event

	mu        sync.Mutex
	state     State
	ws        *websocket.Conn
	backoff   *Backoff
	scheduled bool
	closed    bool
	lastErr   string
	runCtx    context.Context
	runCancel context.CancelFunc
}

// New builds a Conn for the endpoint, appending the API key as a `key`
// query parameter when one is configured and not already present.
func New(endpoint string, opts Options, logger *zerolog.Logger) *Conn {
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Conn{
		endpoint: withAPIKey(endpoint, opts.APIKey),
		opts:     opts,
		log:      logger,
		events:   make(chan Event, 256),
		state:    StateDisconnected,
		backoff:  NewBackoff(opts.ReconnectMinDelay, opts.ReconnectMaxDelay),
	}
}

func withAPIKey(endpoint, key string) string {
	if key == "" {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Get("key") != "" {
		return endpoint
	}
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String()
}

// Events returns the channel all transport notifications arrive on.
func (c *Conn) Events() <-chan Event { return c.events }

// State reports the current connection phase.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether a socket is currently open.
func (c *Conn) Connected() bool { return c.State() == StateConnected }

// LastError returns the text of the most recent transport error, for UI
// status binding.
func (c *Conn) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Endpoint returns the resolved endpoint URL, key included.
func (c *Conn) Endpoint() string { return c.endpoint }

// Connect starts dialing asynchronously. The outcome arrives as an
// EventConnected or EventError on the events channel.
func (c *Conn) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return
	}
	c.closed = false
	c.state = StateConnecting
	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.runCancel = cancel
	c.mu.Unlock()

	go c.dial(runCtx)
}

func (c *Conn) dial(ctx context.Context) {
	ws, _, err := websocket.Dial(ctx, c.endpoint, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("dial failed")
		c.emit(Event{Kind: EventError, Text: err.Error()})
		c.scheduleReconnect(ctx)
		return
	}
	// Frames can exceed the 32KiB default once rosters grow.
	ws.SetReadLimit(1 << 20)

	c.mu.Lock()
	c.ws = ws
	c.state = StateConnected
	c.backoff.Reset()
	c.mu.Unlock()

	c.log.Info().Str("endpoint", c.endpoint).Msg("connected")
	c.emit(Event{Kind: EventConnected})

	if c.opts.KeepAliveInterval > 0 {
		go c.keepAlive(ctx, ws)
	}
	go c.receiveLoop(ctx, ws)
}

// Send writes one text frame. Fire-and-forget: when not connected or the
// write fails, the frame is dropped and logged, never surfaced as an error.
func (c *Conn) Send(text string) {
	c.mu.Lock()
	ws := c.ws
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || ws == nil {
		c.log.Debug().Msg("send skipped: not connected")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
	defer cancel()
	if err := ws.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		c.log.Warn().Err(err).Msg("send failed")
	}
}

func (c *Conn) receiveLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			c.handleReadError(ctx, err)
			return
		}
		c.emit(Event{Kind: EventMessage, Text: string(data)})
	}
}

// handleReadError categorizes the end of a receive loop. Ordinary remote
// closes become Disconnected events; anything else is an Error event. Both
// schedule a reconnect unless auto-reconnect is off or Close was called.
func (c *Conn) handleReadError(ctx context.Context, err error) {
	c.mu.Lock()
	explicit := c.closed
	c.state = StateDisconnected
	c.ws = nil
	if !isRemoteClose(err) && !explicit {
		c.lastErr = err.Error()
	}
	c.mu.Unlock()

	if explicit || errors.Is(err, context.Canceled) {
		c.emit(Event{Kind: EventDisconnected})
		return
	}
	if isRemoteClose(err) {
		c.log.Info().Msg("remote closed connection")
		c.emit(Event{Kind: EventDisconnected})
	} else {
		c.log.Warn().Err(err).Msg("receive loop failed")
		c.emit(Event{Kind: EventError, Text: err.Error()})
	}
	c.scheduleReconnect(ctx)
}

func isRemoteClose(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
		return true
	}
	return false
}

// scheduleReconnect arms a single backoff timer. The scheduled guard keeps
// concurrent failures from stacking timers.
func (c *Conn) scheduleReconnect(ctx context.Context) {
	c.mu.Lock()
	if !c.opts.AutoReconnect || c.closed || c.scheduled {
		c.mu.Unlock()
		return
	}
	c.scheduled = true
	delay := c.backoff.Next()
	c.mu.Unlock()

	c.log.Info().Dur("delay", delay).Msg("reconnect scheduled")
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.scheduled = false
			c.mu.Unlock()
			return
		case <-timer.C:
		}
		c.mu.Lock()
		c.scheduled = false
		if c.closed || c.state == StateConnected || c.state == StateConnecting {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()
		c.dial(ctx)
	}()
}

func (c *Conn) keepAlive(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(c.opts.KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.Ping(ctx); err != nil {
				// The receive loop will observe the same failure.
				return
			}
		}
	}
}

// Close tears the connection down, cancels any scheduled reconnect, and
// suppresses future auto-reconnect attempts until the next Connect.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = StateClosing
	ws := c.ws
	cancel := c.runCancel
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close(websocket.StatusNormalClosure, "closed by client")
	}
	if cancel != nil {
		cancel()
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		c.emit(Event{Kind: EventDisconnected})
	}
}

// emit never blocks the receive loop: if the consumer lags far enough to
// fill the buffer, the event is dropped.
func (c *Conn) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn().Int("kind", int(ev.Kind)).Msg("event dropped: slow consumer")
	}
}
