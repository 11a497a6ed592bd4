// Package session tracks who the local player is and who shares the lobby
// with them: the identity assignment handshake, the ordered roster, and the
// parsed shapes of membership/chat traffic.
package session

import (
	"strings"

	"github.com/chronosync/chronosync-go/internal/protocol"
	"github.com/google/uuid"
)

// IdentityState is the local session's handshake phase.
type IdentityState int

const (
	IdentityUnidentified IdentityState = iota
	IdentityConnecting
	IdentityAwaitingServerID
	IdentityIdentified
)

func (s IdentityState) String() string {
	switch s {
	case IdentityConnecting:
		return "connecting"
	case IdentityAwaitingServerID:
		return "awaiting_server_id"
	case IdentityIdentified:
		return "identified"
	default:
		return "unidentified"
	}
}

// Identity holds the local player's ids and display name through the
// handshake: the client announces a placeholder id, the server answers
// with the definitive one, and everything keyed by the placeholder gets
// renamed.
type Identity struct {
	state         IdentityState
	placeholderID string
	assignedID    string
	displayName   string

	// send transmits an envelope; injected by the owner.
	send func(string)
	// onAssigned propagates an id change to dependent registries before
	// observers hear about it.
	onAssigned func(oldID, newID string)
	// onReady fires when a definitive id (and any buffered name) is in place.
	onReady func(id, name string)
}

// NewIdentity builds an identity with the given placeholder id, generating
// a guest id when none is supplied.
func NewIdentity(placeholderID string, send func(string)) *Identity {
	if placeholderID == "" {
		placeholderID = "guest-" + uuid.NewString()[:8]
	}
	if send == nil {
		send = func(string) {}
	}
	return &Identity{
		placeholderID: placeholderID,
		send:          send,
	}
}

func (i *Identity) State() IdentityState { return i.state }

// PlaceholderID returns the client-chosen id used before assignment.
func (i *Identity) PlaceholderID() string { return i.placeholderID }

// AssignedID returns the server-authoritative id, empty until assigned.
func (i *Identity) AssignedID() string { return i.assignedID }

// EffectiveID returns the id other subsystems should key by right now.
func (i *Identity) EffectiveID() string {
	if i.assignedID != "" {
		return i.assignedID
	}
	return i.placeholderID
}

func (i *Identity) DisplayName() string { return i.displayName }

// SetPlayerID replaces the placeholder (e.g. with the username from an
// auth login). Ignored once the server has assigned an id.
func (i *Identity) SetPlayerID(id string) {
	if id == "" || i.state == IdentityIdentified {
		return
	}
	i.placeholderID = id
}

// OnAssigned registers the registry-rename hook.
func (i *Identity) OnAssigned(fn func(oldID, newID string)) { i.onAssigned = fn }

// OnReady registers the identity-ready observer.
func (i *Identity) OnReady(fn func(id, name string)) { i.onReady = fn }

// BeginConnect marks the transport dial in progress.
func (i *Identity) BeginConnect() {
	if i.state == IdentityUnidentified {
		i.state = IdentityConnecting
	}
}

// Announce sends the placeholder id to the server and starts waiting for
// the definitive assignment.
func (i *Identity) Announce() {
	i.send(protocol.Identify(i.placeholderID))
	i.state = IdentityAwaitingServerID
}

// HandleAssignment processes a server id assignment. An empty id is
// ignored. A repeat assignment (already identified) re-runs the rename
// logic, supporting server-side id changes.
func (i *Identity) HandleAssignment(id string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	old := i.EffectiveID()
	i.assignedID = id
	i.state = IdentityIdentified
	if old != id && i.onAssigned != nil {
		i.onAssigned(old, id)
	}
	i.flushDisplayName()
	if i.onReady != nil {
		i.onReady(i.assignedID, i.displayName)
	}
}

// SetDisplayName stores the local display name. Identity-dependent
// messages are deferred: the name goes out only once the server has
// assigned an id, never before.
func (i *Identity) SetDisplayName(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	i.displayName = name
	if i.state == IdentityIdentified {
		i.flushDisplayName()
		if i.onReady != nil {
			i.onReady(i.assignedID, i.displayName)
		}
	}
}

func (i *Identity) flushDisplayName() {
	if i.displayName == "" {
		return
	}
	i.send(protocol.DisplayName(i.displayName))
}

// Reset drops the assignment, e.g. after an explicit disconnect.
func (i *Identity) Reset() {
	i.assignedID = ""
	i.state = IdentityUnidentified
}
