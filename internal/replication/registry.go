package replication

import (
	"time"

	"github.com/chronosync/chronosync-go/internal/protocol"
	"github.com/chronosync/chronosync-go/internal/wire"
	"github.com/rs/zerolog"
)

// Entity is one networked object: a transform plus optional animator and
// rigidbody views. An entity with Authority samples and sends; without it
// the entity follows remote updates.
type Entity struct {
	ID        string
	Authority bool
	Transform *TransformSync
	Animator  *AnimatorView
	Rigidbody *RigidbodyView
}

// NewEntity builds an authority or follower entity with default transform
// tuning. Views are attached separately by the caller that needs them.
func NewEntity(id string, authority bool, params TransformParams) *Entity {
	return &Entity{
		ID:        id,
		Authority: authority,
		Transform: NewTransformSync(params),
	}
}

// Registry tracks every replicated entity by id and routes inbound
// per-entity traffic. All access happens on the core run loop.
type Registry struct {
	entities map[string]*Entity
	order    []string
	log      *zerolog.Logger
}

func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		entities: make(map[string]*Entity),
		log:      logger,
	}
}

// Register adds an entity, replacing any previous one under the same id.
func (r *Registry) Register(e *Entity) {
	if e == nil || e.ID == "" {
		return
	}
	if _, exists := r.entities[e.ID]; !exists {
		r.order = append(r.order, e.ID)
	}
	r.entities[e.ID] = e
}

// Deregister removes an entity. No-op for unknown ids.
func (r *Registry) Deregister(id string) {
	if _, ok := r.entities[id]; !ok {
		return
	}
	delete(r.entities, id)
	for i, cur := range r.order {
		if cur == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Get(id string) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Each visits every entity in registration order.
func (r *Registry) Each(fn func(*Entity)) {
	for _, id := range r.order {
		fn(r.entities[id])
	}
}

// Rename moves an entity to a new id, typically when the server replaces
// a placeholder player id. Refuses to overwrite an existing entry; the
// entity under the old id is dropped instead.
func (r *Registry) Rename(oldID, newID string) {
	if oldID == newID || newID == "" {
		return
	}
	e, ok := r.entities[oldID]
	if !ok {
		return
	}
	if _, taken := r.entities[newID]; taken {
		r.log.Warn().Str("old", oldID).Str("new", newID).Msg("entity rename target occupied, dropping old entry")
		r.Deregister(oldID)
		return
	}
	delete(r.entities, oldID)
	e.ID = newID
	r.entities[newID] = e
	for i, cur := range r.order {
		if cur == oldID {
			r.order[i] = newID
			break
		}
	}
}

// ApplyState routes a state_update block to the matching follower entity.
// Updates for unknown or authority entities are dropped silently; the
// server may replicate objects this client never spawned.
func (r *Registry) ApplyState(entityID string, state *wire.Object) {
	e, ok := r.entities[entityID]
	if !ok || e.Authority || e.Transform == nil {
		return
	}
	e.Transform.ApplyRemote(state)
}

// ApplyCustomEvent routes a custom_event payload by code. Unknown codes
// and entities are dropped silently.
func (r *Registry) ApplyCustomEvent(entityID string, code int, content *wire.Object) {
	e, ok := r.entities[entityID]
	if !ok || e.Authority {
		return
	}
	switch code {
	case protocol.CodeAnimator:
		if e.Animator != nil {
			e.Animator.Apply(content)
		}
	case protocol.CodeRigidbody:
		if e.Rigidbody != nil {
			e.Rigidbody.Apply(content)
		}
	}
}

// Sample collects every due outbound payload from authority entities.
// send receives fully encoded envelopes.
func (r *Registry) Sample(now time.Time, localPlayerID string, send func(string)) {
	for _, id := range r.order {
		e := r.entities[id]
		if !e.Authority {
			continue
		}
		if e.Transform != nil {
			if state := e.Transform.MaybeSample(now); state != nil {
				send(protocol.StateUpdate(localPlayerID, e.ID, state))
			}
		}
		if e.Animator != nil {
			if content := e.Animator.MaybeSample(now); content != nil {
				send(protocol.CustomEvent(protocol.CodeAnimator, e.ID, content))
			}
		}
		if e.Rigidbody != nil {
			if content := e.Rigidbody.MaybeSample(now); content != nil {
				send(protocol.CustomEvent(protocol.CodeRigidbody, e.ID, content))
			}
		}
	}
}

// Advance steps smoothing for every follower entity.
func (r *Registry) Advance(dt time.Duration) {
	for _, id := range r.order {
		e := r.entities[id]
		if !e.Authority && e.Transform != nil {
			e.Transform.Advance(dt)
		}
	}
}
