package core

import (
	"github.com/chronosync/chronosync-go/internal/protocol"
	"github.com/chronosync/chronosync-go/internal/session"
)

// subscribe wires every inbound event to its handler. Handlers run on
// the Run loop goroutine via Router.Dispatch.
func (c *Core) subscribe() {
	c.router.On(protocol.EventPlayerConnected, c.onAssignment)
	c.router.On(protocol.EventDisplayNameUpdated, c.onDisplayNameUpdated)

	c.router.On(protocol.EventLobbyMembers, c.onLobbyMembers)
	c.router.On(protocol.EventPlayerJoinedLobby, c.onPlayerJoined)
	c.router.On(protocol.EventPlayerLeftLobby, c.onPlayerLeft)
	c.router.On(protocol.EventPlayerDisconnected, c.onPlayerLeft)
	c.router.On(protocol.EventRemoveFromLobby, c.onRemoveFromLobby)
	c.router.On(protocol.EventKickedFromLobby, c.onKicked)
	c.router.On(protocol.EventLobbyClosed, c.onLobbyClosed)
	c.router.On(protocol.EventLobbyCancel, c.onLobbyClosed)
	c.router.On(protocol.EventLobbyList, c.onLobbyList)
	c.router.On(protocol.EventGameStart, c.onGameStart)

	c.router.On(protocol.EventChatMessage, c.onChat)
	c.router.On(protocol.EventChatMessageGlobal, c.onChat)
	c.router.On(protocol.EventPrivateMessage, c.onChat)
	c.router.On(protocol.EventChatHistory, c.onChatHistory)

	c.router.On(protocol.EventCustomEvent, c.onCustomEvent)
	c.router.On(protocol.EventStateUpdate, c.onStateUpdate)
}

// onAssignment handles the server's answer to our announce: the
// authoritative player id.
func (c *Core) onAssignment(f *protocol.Frame) {
	id := f.String("player_id")
	if id == "" {
		return
	}
	c.identity.HandleAssignment(id)
}

func (c *Core) onDisplayNameUpdated(f *protocol.Frame) {
	id := f.String("player_id")
	name := f.String("display_name")
	if id == "" || name == "" {
		return
	}
	c.mu.Lock()
	known := c.roster.Contains(id)
	if known {
		c.roster.Upsert(id, name)
	}
	c.mu.Unlock()
	if known {
		c.rosterChanged()
	}
}

// frameInLobby reports whether a lobby-scoped frame concerns the lobby
// we are in. Frames without a lobby field pass through; some servers
// omit it on direct notifications.
func (c *Core) frameInLobby(f *protocol.Frame) bool {
	c.mu.Lock()
	lobby := c.lobby
	c.mu.Unlock()
	if lobby == "" {
		return false
	}
	frameLobby := f.String("lobby")
	return frameLobby == "" || frameLobby == lobby
}

// onLobbyMembers reconciles the roster against an authoritative
// snapshot. The local player is kept out of the roster; it tracks peers.
func (c *Core) onLobbyMembers(f *protocol.Frame) {
	if !c.frameInLobby(f) {
		return
	}
	members := session.ParseMembers(f)
	self := c.identity.EffectiveID()
	peers := members[:0]
	for _, m := range members {
		if m.ID != self {
			peers = append(peers, m)
		}
	}
	c.mu.Lock()
	c.roster.ReplaceAll(peers)
	c.mu.Unlock()
	c.rosterChanged()
}

func (c *Core) onPlayerJoined(f *protocol.Frame) {
	if !c.frameInLobby(f) {
		return
	}
	id := f.String("player_id")
	if id == "" || id == c.identity.EffectiveID() {
		return
	}
	c.mu.Lock()
	c.roster.Upsert(id, f.String("display_name"))
	c.mu.Unlock()
	c.rosterChanged()
}

func (c *Core) onPlayerLeft(f *protocol.Frame) {
	id := f.String("player_id")
	if id == "" {
		return
	}
	if f.Event() == protocol.EventPlayerLeftLobby && !c.frameInLobby(f) {
		return
	}
	c.mu.Lock()
	known := c.roster.Contains(id)
	if known {
		c.roster.Remove(id)
		c.registry.Deregister(id)
	}
	c.mu.Unlock()
	if known {
		c.rosterChanged()
	}
}

// onRemoveFromLobby fires when the host ejects a player. Addressed to
// us, it is an unconditional exit with no leave message of our own; the
// server already dropped the membership. Addressed to a peer, it is an
// ordinary departure.
func (c *Core) onRemoveFromLobby(f *protocol.Frame) {
	id := f.String("player_id")
	if id == c.identity.EffectiveID() {
		c.exitLobby("kicked")
		return
	}
	c.onPlayerLeft(f)
}

func (c *Core) onKicked(f *protocol.Frame) {
	reason := f.String("reason")
	if reason == "" {
		reason = "kicked"
	}
	c.exitLobby(reason)
}

func (c *Core) onLobbyClosed(f *protocol.Frame) {
	if !c.frameInLobby(f) {
		return
	}
	c.mu.Lock()
	host := c.host
	c.mu.Unlock()
	if host && f.Event() == protocol.EventLobbyCancel {
		// Our own cancel echoed back; exitLobby already ran.
		return
	}
	c.exitLobby("closed")
}

func (c *Core) onLobbyList(f *protocol.Frame) {
	if c.callbacks.OnLobbyList == nil {
		return
	}
	c.callbacks.OnLobbyList(session.ParseLobbyList(f))
}

func (c *Core) onGameStart(f *protocol.Frame) {
	if !c.frameInLobby(f) {
		return
	}
	c.mu.Lock()
	already := c.started
	c.started = true
	lobby := c.lobby
	c.mu.Unlock()
	if already {
		return
	}
	c.log.Info().Str("lobby", lobby).Msg("game started")
	if c.callbacks.OnGameStart != nil {
		c.callbacks.OnGameStart(lobby)
	}
}

func (c *Core) onChat(f *protocol.Frame) {
	msg := session.ParseChat(f)
	if msg.Text == "" {
		return
	}
	if c.callbacks.OnChat != nil {
		c.callbacks.OnChat(msg)
	}
}

func (c *Core) onChatHistory(f *protocol.Frame) {
	if c.callbacks.OnChat == nil {
		return
	}
	for _, msg := range session.ParseChatHistory(f) {
		if msg.Text != "" {
			c.callbacks.OnChat(msg)
		}
	}
}

func (c *Core) onCustomEvent(f *protocol.Frame) {
	if sender := f.String("player_id"); sender != "" && sender == c.identity.EffectiveID() {
		return
	}
	code, ok := f.Int("code")
	if !ok {
		return
	}
	entityID := f.String("entity_id")
	if entityID == "" {
		return
	}
	content, _ := f.Object("content")
	c.mu.Lock()
	c.registry.ApplyCustomEvent(entityID, int(code), content)
	c.mu.Unlock()
}

func (c *Core) onStateUpdate(f *protocol.Frame) {
	if sender := f.String("player_id"); sender != "" && sender == c.identity.EffectiveID() {
		return
	}
	entityID := f.String("entity_id")
	if entityID == "" {
		return
	}
	state, ok := f.Object("state")
	if !ok {
		// Legacy senders only fill the transform block.
		state, ok = f.Object("transform")
		if !ok {
			return
		}
	}
	c.mu.Lock()
	c.registry.ApplyState(entityID, state)
	c.mu.Unlock()
}

func (c *Core) rosterChanged() {
	if c.callbacks.OnRosterChanged == nil {
		return
	}
	c.mu.Lock()
	members := c.roster.Members()
	c.mu.Unlock()
	c.callbacks.OnRosterChanged(members)
}
