// Package protocol defines the ChronoSync wire events, outbound envelope
// builders, and the router that dispatches inbound frames to subscribers.
package protocol

import "github.com/chronosync/chronosync-go/internal/wire"

// Wire event discriminators. Every envelope carries exactly one of these
// under the "event" key.
const (
	EventPlayerConnected     = "player_connected"
	EventSetDisplayName      = "set_display_name"
	EventDisplayNameUpdated  = "display_name_updated"
	EventMatchStart          = "match_start"
	EventStartMatch          = "start_match"
	EventGameStart           = "game_start"
	EventJoinLobby           = "join_lobby"
	EventLeaveLobby          = "leave_lobby"
	EventLobbyCancel         = "lobby_cancel"
	EventLobbyClosed         = "lobby_closed"
	EventLobbyList           = "lobby_list"
	EventRequestLobbyList    = "request_lobby_list"
	EventLobbyMembers        = "lobby_members"
	EventRequestLobbyMembers = "request_lobby_members"
	EventPlayerJoinedLobby   = "player_joined_lobby"
	EventPlayerLeftLobby     = "player_left_lobby"
	EventPlayerDisconnected  = "player_disconnected"
	EventRemoveFromLobby     = "remove_from_lobby"
	EventKickedFromLobby     = "kicked_from_lobby"
	EventChatMessage         = "chat_message"
	EventChatMessageGlobal   = "chat_message_global"
	EventPrivateMessage      = "private_message"
	EventChatHistory         = "chat_history"
	EventCustomEvent         = "custom_event"
	EventStateUpdate         = "state_update"
)

// Custom event codes route per-entity payloads to the matching view.
const (
	CodeAnimator  = 1001
	CodeRigidbody = 1002
)

func envelope(event string) *wire.Object {
	return wire.NewObject().Set("event", wire.String(event))
}

// Identify announces the client-chosen player id after connecting.
func Identify(playerID string) string {
	return wire.Encode(wire.From(envelope(EventPlayerConnected).
		Set("player_id", wire.String(playerID))))
}

// DisplayName announces the local display name. Only valid once the server
// has assigned a definitive id.
func DisplayName(name string) string {
	return wire.Encode(wire.From(envelope(EventSetDisplayName).
		Set("display_name", wire.String(name))))
}

// MatchStart creates (hosts) a lobby with the given capacity.
func MatchStart(lobby string, maxPlayers int) string {
	return wire.Encode(wire.From(envelope(EventMatchStart).
		Set("lobby", wire.String(lobby)).
		Set("max_players", wire.Integer(int64(maxPlayers)))))
}

// StartMatch asks the server to begin the match for a full lobby.
func StartMatch(lobby string) string {
	return wire.Encode(wire.From(envelope(EventStartMatch).
		Set("lobby", wire.String(lobby))))
}

func JoinLobby(lobby string) string {
	return wire.Encode(wire.From(envelope(EventJoinLobby).
		Set("lobby", wire.String(lobby))))
}

func LeaveLobby(lobby string) string {
	return wire.Encode(wire.From(envelope(EventLeaveLobby).
		Set("lobby", wire.String(lobby))))
}

// LobbyCancel closes a hosted lobby for everyone in it.
func LobbyCancel(lobby string) string {
	return wire.Encode(wire.From(envelope(EventLobbyCancel).
		Set("lobby", wire.String(lobby))))
}

func RequestLobbyList() string {
	return wire.Encode(wire.From(envelope(EventRequestLobbyList)))
}

func RequestLobbyMembers(lobby string) string {
	return wire.Encode(wire.From(envelope(EventRequestLobbyMembers).
		Set("lobby", wire.String(lobby))))
}

// RemoveFromLobby kicks a player from a hosted lobby.
func RemoveFromLobby(lobby, playerID string) string {
	return wire.Encode(wire.From(envelope(EventRemoveFromLobby).
		Set("lobby", wire.String(lobby)).
		Set("player_id", wire.String(playerID))))
}

// Chat sends a room-scoped chat message.
func Chat(lobby, text string) string {
	return wire.Encode(wire.From(envelope(EventChatMessage).
		Set("lobby", wire.String(lobby)).
		Set("message", wire.String(text))))
}

// ChatGlobal sends a server-wide chat message.
func ChatGlobal(text string) string {
	return wire.Encode(wire.From(envelope(EventChatMessageGlobal).
		Set("message", wire.String(text))))
}

// PrivateMessage sends a direct message to one player.
func PrivateMessage(to, text string) string {
	return wire.Encode(wire.From(envelope(EventPrivateMessage).
		Set("to", wire.String(to)).
		Set("message", wire.String(text))))
}

// CustomEvent wraps an application payload routed by code and entity id.
// The entity id is omitted when empty; such events are broadcast-scoped.
func CustomEvent(code int, entityID string, content *wire.Object) string {
	env := envelope(EventCustomEvent).Set("code", wire.Integer(int64(code)))
	if entityID != "" {
		env.Set("entity_id", wire.String(entityID))
	}
	if content == nil {
		content = wire.NewObject()
	}
	env.Set("content", wire.From(content))
	return wire.Encode(wire.From(env))
}

// StateUpdate carries an entity transform sample. The same block is written
// under both "state" and "transform"; older servers read the latter.
func StateUpdate(playerID, entityID string, state *wire.Object) string {
	env := envelope(EventStateUpdate)
	if playerID != "" {
		env.Set("player_id", wire.String(playerID))
	}
	env.Set("entity_id", wire.String(entityID))
	env.Set("state", wire.From(state))
	env.Set("transform", wire.From(state))
	return wire.Encode(wire.From(env))
}
