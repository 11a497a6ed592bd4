package protocol

import (
	"sync"

	"github.com/chronosync/chronosync-go/internal/wire"
	"github.com/rs/zerolog"
)

// Handler reacts to one inbound frame. Handlers run on the goroutine that
// calls Dispatch (the core run loop).
type Handler func(*Frame)

// Router fans inbound frames out to subscribers keyed by event
// discriminator. Unknown events are dropped, which keeps the client
// forward-compatible with servers that emit more than it understands.
type Router struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]*Subscription
	any    []*Subscription
	log    *zerolog.Logger
}

// Subscription is the handle returned by On/OnAny. Cancel detaches the
// handler; components must cancel their subscriptions on teardown.
type Subscription struct {
	router  *Router
	event   string // "" for any-event subscriptions
	id      int
	handler Handler
}

func NewRouter(logger *zerolog.Logger) *Router {
	return &Router{
		subs: make(map[string][]*Subscription),
		log:  logger,
	}
}

// On registers a handler for one event discriminator.
func (r *Router) On(event string, h Handler) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub := &Subscription{router: r, event: event, id: r.nextID, handler: h}
	r.subs[event] = append(r.subs[event], sub)
	return sub
}

// OnAny registers a handler that sees every frame carrying a discriminator,
// after the event-specific handlers.
func (r *Router) OnAny(h Handler) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub := &Subscription{router: r, id: r.nextID, handler: h}
	r.any = append(r.any, sub)
	return sub
}

// Cancel removes the subscription from its router. Safe to call twice.
func (s *Subscription) Cancel() {
	if s.router == nil {
		return
	}
	s.router.remove(s)
	s.router = nil
}

func (r *Router) remove(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.event == "" {
		r.any = deleteSub(r.any, s.id)
		return
	}
	r.subs[s.event] = deleteSub(r.subs[s.event], s.id)
}

func deleteSub(list []*Subscription, id int) []*Subscription {
	for i, sub := range list {
		if sub.id == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Dispatch scans the frame for its event discriminator and invokes every
// matching subscriber once. Frames without a discriminator are dropped.
func (r *Router) Dispatch(raw string) {
	event := wire.ScanString(raw, "event")
	if event == "" {
		r.log.Debug().Str("raw", clip(raw, 120)).Msg("frame without event field")
		return
	}
	frame := &Frame{Raw: raw, event: event}

	r.mu.Lock()
	targets := make([]*Subscription, 0, len(r.subs[event])+len(r.any))
	targets = append(targets, r.subs[event]...)
	targets = append(targets, r.any...)
	r.mu.Unlock()

	for _, sub := range targets {
		sub.handler(frame)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
