package session

import (
	"github.com/chronosync/chronosync-go/internal/protocol"
	"github.com/chronosync/chronosync-go/internal/wire"
)

// LobbyInfo is one entry of the server's open-lobby listing.
type LobbyInfo struct {
	Name       string
	MaxPlayers int
}

// ChatMessage is a normalized inbound chat line, whichever envelope shape
// it arrived in.
type ChatMessage struct {
	SenderID   string
	SenderName string
	Text       string
	Timestamp  string
	Lobby      string
	Private    bool
	Global     bool
}

// Sender returns the best printable sender label.
func (c ChatMessage) Sender() string {
	if c.SenderName != "" {
		return c.SenderName
	}
	if c.SenderID != "" {
		return c.SenderID
	}
	return "server"
}

// ParseMembers extracts a roster snapshot from a lobby_members frame.
// The members field arrives either as an array of objects carrying ids
// and display names, or as a bare array of id strings from older servers.
func ParseMembers(f *protocol.Frame) []Member {
	if arr, ok := f.Array("members"); ok {
		out := make([]Member, 0, len(arr))
		for _, v := range arr {
			switch v.Kind {
			case wire.KindObject:
				id, _ := v.Obj.StringAt("player_id")
				if id == "" {
					id, _ = v.Obj.StringAt("id")
				}
				if id == "" {
					continue
				}
				name, _ := v.Obj.StringAt("display_name")
				out = append(out, Member{ID: id, DisplayName: name})
			case wire.KindString:
				if v.Str != "" {
					out = append(out, Member{ID: v.Str})
				}
			}
		}
		return out
	}
	// Fast path for the flat string form; also covers frames the full
	// decoder could not make sense of.
	ids := f.StringArray("members")
	out := make([]Member, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, Member{ID: id})
		}
	}
	return out
}

// ParseLobbyList extracts the open lobbies from a lobby_list frame. Each
// entry is either a bare lobby name or an object with the name and its
// capacity.
func ParseLobbyList(f *protocol.Frame) []LobbyInfo {
	arr, ok := f.Array("lobbies")
	if !ok {
		names := f.StringArray("lobbies")
		out := make([]LobbyInfo, 0, len(names))
		for _, n := range names {
			if n != "" {
				out = append(out, LobbyInfo{Name: n})
			}
		}
		return out
	}
	out := make([]LobbyInfo, 0, len(arr))
	for _, v := range arr {
		switch v.Kind {
		case wire.KindString:
			if v.Str != "" {
				out = append(out, LobbyInfo{Name: v.Str})
			}
		case wire.KindObject:
			name, _ := v.Obj.StringAt("name")
			if name == "" {
				name, _ = v.Obj.StringAt("lobby")
			}
			if name == "" {
				continue
			}
			info := LobbyInfo{Name: name}
			if mp, ok := v.Obj.Float64At("max_players"); ok {
				info.MaxPlayers = int(mp)
			}
			out = append(out, info)
		}
	}
	return out
}

// ParseChat normalizes a chat frame. The message field is usually a
// nested object with the sender and timestamp, but plain-string messages
// (server notices, older envelopes) are accepted too.
func ParseChat(f *protocol.Frame) ChatMessage {
	msg := ChatMessage{
		Lobby:   f.String("lobby"),
		Private: f.Event() == protocol.EventPrivateMessage,
		Global:  f.Event() == protocol.EventChatMessageGlobal,
	}
	if obj, ok := f.Object("message"); ok {
		msg.SenderID, _ = obj.StringAt("player_id")
		msg.SenderName, _ = obj.StringAt("display_name")
		msg.Text, _ = obj.StringAt("message")
		msg.Timestamp, _ = obj.StringAt("timestamp")
		return msg
	}
	msg.Text = f.String("message")
	msg.SenderID = f.String("player_id")
	if msg.SenderID == "" {
		msg.SenderID = f.String("from")
	}
	msg.SenderName = f.String("display_name")
	msg.Timestamp = f.String("timestamp")
	return msg
}

// ParseChatHistory extracts the backlog lines of a chat_history frame,
// oldest first, in the same normalized shape as live messages.
func ParseChatHistory(f *protocol.Frame) []ChatMessage {
	arr, ok := f.Array("messages")
	if !ok {
		return nil
	}
	lobby := f.String("lobby")
	out := make([]ChatMessage, 0, len(arr))
	for _, v := range arr {
		if v.Kind != wire.KindObject {
			continue
		}
		m := ChatMessage{Lobby: lobby}
		m.SenderID, _ = v.Obj.StringAt("player_id")
		m.SenderName, _ = v.Obj.StringAt("display_name")
		m.Text, _ = v.Obj.StringAt("message")
		m.Timestamp, _ = v.Obj.StringAt("timestamp")
		out = append(out, m)
	}
	return out
}
