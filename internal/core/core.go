// Package core runs the client: it owns the transport link, routes
// inbound frames, drives the identity handshake, reconciles the lobby
// roster, and ticks entity replication. All shared state is touched
// either on the Run loop goroutine or under the core mutex.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/chronosync/chronosync-go/internal/config"
	"github.com/chronosync/chronosync-go/internal/protocol"
	"github.com/chronosync/chronosync-go/internal/replication"
	"github.com/chronosync/chronosync-go/internal/session"
	"github.com/chronosync/chronosync-go/internal/store"
	"github.com/chronosync/chronosync-go/internal/transport"
	"github.com/chronosync/chronosync-go/internal/wire"
	"github.com/rs/zerolog"
)

// tickInterval paces replication sampling and smoothing. Per-entity send
// rates are capped separately, so a fast tick only improves smoothing.
const tickInterval = 33 * time.Millisecond

// link is the slice of the transport the core needs. *transport.Conn
// implements it; tests substitute a scripted fake.
type link interface {
	Connect(ctx context.Context)
	Close()
	Send(text string)
	Events() <-chan transport.Event
	Connected() bool
	State() transport.State
}

// Callbacks notify the embedding application. All of them are optional
// and are invoked on the Run loop goroutine; handlers must not block.
type Callbacks struct {
	OnReady func(playerID, displayName string)
	// OnDisconnect fires when the server ends the session in an orderly
	// way; OnError fires for transport failures. When OnError is nil,
	// errors fall through to OnDisconnect.
	OnDisconnect  func(reason string)
	OnError       func(reason string)
	OnLobbyJoined func(lobby string, host bool)
	// OnLobbyLeft fires for voluntary leaves, kicks, and closed lobbies.
	OnLobbyLeft     func(lobby, reason string)
	OnRosterChanged func(members []session.Member)
	OnLobbyList     func(lobbies []session.LobbyInfo)
	OnGameStart     func(lobby string)
	OnChat          func(msg session.ChatMessage)
}

// Core is the client engine. Create with New, subscribe callbacks, then
// call Run on its own goroutine and drive it through the public methods.
type Core struct {
	cfg config.Config
	log *zerolog.Logger

	conn     link
	router   *protocol.Router
	identity *session.Identity
	roster   *session.Roster
	registry *replication.Registry
	settings *store.Settings

	callbacks Callbacks

	mu         sync.Mutex
	lobby      string
	host       bool
	started    bool
	maxPlayers int
}

// New builds a fully wired Core from configuration. The settings store is
// optional; pass nil to keep everything in memory.
func New(cfg config.Config, settings *store.Settings, logger *zerolog.Logger) *Core {
	conn := transport.New(cfg.ServerURL, transport.Options{
		APIKey:            cfg.APIKey,
		AutoReconnect:     cfg.AutoReconnect,
		ReconnectMinDelay: cfg.ReconnectMinDelay,
		ReconnectMaxDelay: cfg.ReconnectMaxDelay,
		KeepAliveInterval: cfg.KeepAliveInterval,
	}, logger)
	return newCore(conn, cfg, settings, logger)
}

func newCore(conn link, cfg config.Config, settings *store.Settings, logger *zerolog.Logger) *Core {
	c := &Core{
		cfg:      cfg,
		log:      logger,
		conn:     conn,
		router:   protocol.NewRouter(logger),
		roster:   session.NewRoster(),
		registry: replication.NewRegistry(logger),
		settings: settings,
	}
	c.identity = session.NewIdentity("", conn.Send)
	c.identity.OnAssigned(func(oldID, newID string) {
		c.mu.Lock()
		c.registry.Rename(oldID, newID)
		c.roster.Rename(oldID, newID)
		c.mu.Unlock()
	})
	c.identity.OnReady(c.identityReady)
	c.subscribe()
	return c
}

// SetCallbacks installs application callbacks. Call before Run.
func (c *Core) SetCallbacks(cb Callbacks) { c.callbacks = cb }

// Identity accessors.

func (c *Core) PlayerID() string    { return c.identity.EffectiveID() }
func (c *Core) DisplayName() string { return c.identity.DisplayName() }
func (c *Core) Connected() bool     { return c.conn.Connected() }

// Lobby returns the current lobby name and whether this client hosts it.
func (c *Core) Lobby() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobby, c.host
}

// Members returns a snapshot of the current lobby roster.
func (c *Core) Members() []session.Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster.Members()
}

// SetPlayerID seeds the announced id, typically from an auth login.
// Must be called before Connect to take effect.
func (c *Core) SetPlayerID(id string) { c.identity.SetPlayerID(id) }

// SetDisplayName sets the local display name. Sent immediately when
// identified, buffered until assignment otherwise.
func (c *Core) SetDisplayName(name string) { c.identity.SetDisplayName(name) }

// Connect starts dialing. Progress arrives through callbacks.
func (c *Core) Connect(ctx context.Context) {
	c.identity.BeginConnect()
	c.conn.Connect(ctx)
}

// Run processes transport events and replication ticks until ctx ends.
func (c *Core) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			c.conn.Close()
			return ctx.Err()
		case ev, ok := <-c.conn.Events():
			if !ok {
				return nil
			}
			c.handleTransport(ev)
		case now := <-ticker.C:
			c.tick(now, now.Sub(last))
			last = now
		}
	}
}

func (c *Core) handleTransport(ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnected:
		c.identity.Announce()
	case transport.EventMessage:
		c.router.Dispatch(ev.Text)
	case transport.EventDisconnected:
		if c.callbacks.OnDisconnect != nil {
			c.callbacks.OnDisconnect("disconnected")
		}
	case transport.EventError:
		if c.callbacks.OnError != nil {
			c.callbacks.OnError(ev.Text)
		} else if c.callbacks.OnDisconnect != nil {
			c.callbacks.OnDisconnect(ev.Text)
		}
	}
}

func (c *Core) tick(now time.Time, dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn.Connected() && c.identity.State() == session.IdentityIdentified {
		c.registry.Sample(now, c.identity.AssignedID(), c.conn.Send)
	}
	c.registry.Advance(dt)
}

// identityReady runs when the server has confirmed our id. On a
// reconnect with a lobby still set, the session is re-established: the
// host re-creates the room, a guest re-joins it.
func (c *Core) identityReady(id, name string) {
	c.mu.Lock()
	lobby, host, capacity := c.lobby, c.host, c.maxPlayers
	c.mu.Unlock()

	if lobby == "" {
		c.conn.Send(protocol.RequestLobbyList())
	} else {
		if host {
			c.conn.Send(protocol.MatchStart(lobby, capacity))
		} else {
			c.conn.Send(protocol.JoinLobby(lobby))
		}
		c.conn.Send(protocol.RequestLobbyMembers(lobby))
	}
	if c.callbacks.OnReady != nil {
		c.callbacks.OnReady(id, name)
	}
}

// Lobby operations.

// CreateLobby hosts a new lobby. maxPlayers of zero takes the configured
// default.
func (c *Core) CreateLobby(name string, maxPlayers int) {
	if name == "" {
		name = c.cfg.DefaultRoomName
	}
	if maxPlayers <= 0 {
		maxPlayers = c.cfg.DefaultMaxPlayers
	}
	c.mu.Lock()
	c.lobby = name
	c.host = true
	c.started = false
	c.maxPlayers = maxPlayers
	c.mu.Unlock()
	c.conn.Send(protocol.MatchStart(name, maxPlayers))
	if c.callbacks.OnLobbyJoined != nil {
		c.callbacks.OnLobbyJoined(name, true)
	}
}

// JoinLobby enters an existing lobby as a guest.
func (c *Core) JoinLobby(name string) {
	c.mu.Lock()
	c.lobby = name
	c.host = false
	c.started = false
	c.mu.Unlock()
	c.conn.Send(protocol.JoinLobby(name))
	c.conn.Send(protocol.RequestLobbyMembers(name))
	if c.callbacks.OnLobbyJoined != nil {
		c.callbacks.OnLobbyJoined(name, false)
	}
}

// LeaveLobby leaves voluntarily, telling the server first.
func (c *Core) LeaveLobby() {
	c.mu.Lock()
	lobby := c.lobby
	c.mu.Unlock()
	if lobby == "" {
		return
	}
	c.conn.Send(protocol.LeaveLobby(lobby))
	c.exitLobby("left")
}

// CancelLobby closes a hosted lobby for everyone.
func (c *Core) CancelLobby() {
	c.mu.Lock()
	lobby, host := c.lobby, c.host
	c.mu.Unlock()
	if lobby == "" || !host {
		return
	}
	c.conn.Send(protocol.LobbyCancel(lobby))
	c.exitLobby("cancelled")
}

// Kick removes a player from a hosted lobby.
func (c *Core) Kick(playerID string) {
	c.mu.Lock()
	lobby, host := c.lobby, c.host
	c.mu.Unlock()
	if lobby == "" || !host || playerID == "" {
		return
	}
	c.conn.Send(protocol.RemoveFromLobby(lobby, playerID))
}

// StartMatch asks the server to begin the match in the hosted lobby.
func (c *Core) StartMatch() {
	c.mu.Lock()
	lobby, host := c.lobby, c.host
	c.mu.Unlock()
	if lobby == "" || !host {
		return
	}
	c.conn.Send(protocol.StartMatch(lobby))
}

// RequestLobbyList asks for the open-lobby listing; the answer arrives
// through OnLobbyList.
func (c *Core) RequestLobbyList() {
	c.conn.Send(protocol.RequestLobbyList())
}

// exitLobby clears all lobby-scoped state without telling the server.
// Kicks and closed lobbies land here directly: the membership is already
// gone server-side, so no leave message goes out.
func (c *Core) exitLobby(reason string) {
	c.mu.Lock()
	lobby := c.lobby
	c.lobby = ""
	c.host = false
	c.started = false
	c.roster.Clear()
	c.mu.Unlock()
	if lobby == "" {
		return
	}
	c.log.Info().Str("lobby", lobby).Str("reason", reason).Msg("left lobby")
	if c.callbacks.OnLobbyLeft != nil {
		c.callbacks.OnLobbyLeft(lobby, reason)
	}
}

// Chat operations.

// SendChat sends a message to the current lobby.
func (c *Core) SendChat(text string) {
	c.mu.Lock()
	lobby := c.lobby
	c.mu.Unlock()
	if lobby == "" || text == "" {
		return
	}
	c.conn.Send(protocol.Chat(lobby, text))
}

// SendGlobalChat sends a server-wide message.
func (c *Core) SendGlobalChat(text string) {
	if text == "" {
		return
	}
	c.conn.Send(protocol.ChatGlobal(text))
}

// SendPrivate sends a direct message and remembers the target for the
// next session.
func (c *Core) SendPrivate(ctx context.Context, to, text string) {
	if to == "" || text == "" {
		return
	}
	c.conn.Send(protocol.PrivateMessage(to, text))
	if c.settings != nil {
		if err := c.settings.SetLastPrivateTarget(ctx, c.identity.EffectiveID(), to); err != nil {
			c.log.Warn().Err(err).Msg("persist private target")
		}
	}
}

// LastPrivateTarget returns the remembered direct-message target, if any.
func (c *Core) LastPrivateTarget(ctx context.Context) string {
	if c.settings == nil {
		return ""
	}
	target, err := c.settings.LastPrivateTarget(ctx, c.identity.EffectiveID())
	if err != nil {
		c.log.Warn().Err(err).Msg("load private target")
		return ""
	}
	return target
}

// Entity replication.

// RegisterEntity adds a replicated entity. Authority entities sample and
// send; followers smooth toward remote updates.
func (c *Core) RegisterEntity(e *replication.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Register(e)
}

// DeregisterEntity removes a replicated entity.
func (c *Core) DeregisterEntity(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Deregister(id)
}

// Entity looks an entity up by id.
func (c *Core) Entity(id string) (*replication.Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Get(id)
}

// RaiseEvent sends an application-defined custom event.
func (c *Core) RaiseEvent(code int, entityID string, content *wire.Object) {
	c.conn.Send(protocol.CustomEvent(code, entityID, content))
}

// TransformParams derives replication tuning from configuration.
func (c *Core) TransformParams() replication.TransformParams {
	return replication.TransformParams{
		SendHz:        c.cfg.SendHz,
		MinPosDelta:   c.cfg.MinPosDelta,
		MinRotDelta:   c.cfg.MinRotDelta,
		MinScaleDelta: c.cfg.MinScaleDelta,
		PositionLerp:  c.cfg.PositionLerp,
		RotationLerp:  c.cfg.RotationLerp,
		ScaleLerp:     c.cfg.ScaleLerp,
	}
}

// Close tears down the connection.
func (c *Core) Close() { c.conn.Close() }
