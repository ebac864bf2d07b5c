// Package messaging fans payloads out to the live subscribers of a group.
//
// A group is the set of connections currently listening on one
// conversation. Delivery is at most once to whoever is subscribed when the
// broadcast runs; nothing is queued for absent subscribers.
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrClosed     = errors.New("subscriber closed")
	ErrBufferFull = errors.New("subscriber buffer full")
)

// Subscriber is a live connection handle. Send must not block: it either
// enqueues the payload or fails.
type Subscriber interface {
	ID() string
	Send(payload []byte) error
}

// Broker carries a broadcast to every hub that may hold subscribers of the
// group, including this one.
type Broker interface {
	Publish(ctx context.Context, group string, payload []byte) error
}

type group struct {
	mu      sync.Mutex
	members map[string]Subscriber
}

type Hub struct {
	mu     sync.RWMutex
	groups map[string]*group
	broker Broker
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]*group)}
}

// SetBroker routes broadcasts through b. Without a broker broadcasts are
// delivered in-process only.
func (h *Hub) SetBroker(b Broker) {
	h.mu.Lock()
	h.broker = b
	h.mu.Unlock()
}

// Join adds sub to the group. Joining twice is a no-op.
func (h *Hub) Join(name string, sub Subscriber) {
	h.mu.Lock()
	g, ok := h.groups[name]
	if !ok {
		g = &group{members: make(map[string]Subscriber)}
		h.groups[name] = g
	}
	// Held across the insert so Leave cannot drop an empty group between
	// the lookup and the insert.
	g.mu.Lock()
	g.members[sub.ID()] = sub
	g.mu.Unlock()
	h.mu.Unlock()
}

// Leave removes sub from the group. Leaving a group the subscriber is not
// in is a no-op. Once Leave returns no broadcast will target sub.
func (h *Hub) Leave(name string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[name]
	if !ok {
		return
	}
	g.mu.Lock()
	delete(g.members, sub.ID())
	empty := len(g.members) == 0
	g.mu.Unlock()
	if empty {
		delete(h.groups, name)
	}
}

// Size returns the number of current subscribers of the group.
func (h *Hub) Size(name string) int {
	h.mu.RLock()
	g, ok := h.groups[name]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Broadcast hands payload to the broker, or delivers it locally when there
// is none. A failing broker falls back to local delivery.
func (h *Hub) Broadcast(ctx context.Context, name string, payload []byte) int {
	h.mu.RLock()
	broker := h.broker
	h.mu.RUnlock()

	if broker != nil {
		err := broker.Publish(ctx, name, payload)
		if err == nil {
			return 0
		}
		slog.WarnContext(ctx, "broker publish failed, delivering locally", "group", name, "err", err)
	}
	return h.Deliver(name, payload)
}

// Deliver enqueues payload on every current subscriber of the group and
// returns how many accepted it. Deliveries on one group are serialized, so
// subscribers observe broadcasts in submission order. A subscriber that
// rejects the payload is skipped; it never blocks the others.
func (h *Hub) Deliver(name string, payload []byte) int {
	h.mu.RLock()
	g, ok := h.groups[name]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	delivered := 0
	for id, sub := range g.members {
		if err := sub.Send(payload); err != nil {
			slog.Debug("dropped broadcast", "group", name, "subscriber", id, "err", err)
			continue
		}
		delivered++
	}
	return delivered
}
