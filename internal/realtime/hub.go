// Package realtime pushes event snapshots to subscribed clients.
package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

// MessageType identifies a server to client frame.
type MessageType string

const (
	TypeEventUpdated MessageType = "event-updated"
	TypeJoined       MessageType = "joined"
	TypeLeft         MessageType = "left"
	TypeError        MessageType = "error"
)

// Message is a frame sent to subscribers.
type Message struct {
	Type     MessageType       `json:"type"`
	EventID  string            `json:"eventId,omitempty"`
	Snapshot *models.Aggregate `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Subscriber is one connected client. Outbound is closed by Hub.Close.
type Subscriber struct {
	ID       string
	Outbound chan Message

	events    map[string]bool // guarded by Hub.mu
	done      chan struct{}
	closeOnce sync.Once
}

// Done is closed when the subscriber is closed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// enqueue queues a message without blocking. It must not be called after
// Hub.Close.
func (s *Subscriber) enqueue(msg Message) bool {
	select {
	case s.Outbound <- msg:
		return true
	default:
		return false
	}
}

// Hub tracks which subscribers follow which events.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*Subscriber]bool
	buffer        int
}

// NewHub creates a hub whose subscribers buffer up to buffer messages.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subscriptions: make(map[string]map[*Subscriber]bool),
		buffer:        buffer,
	}
}

// NewSubscriber registers a new client that follows no event yet.
func (h *Hub) NewSubscriber() *Subscriber {
	metrics.Subscribers.Inc()
	return &Subscriber{
		ID:       uuid.New().String(),
		Outbound: make(chan Message, h.buffer),
		events:   make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Join subscribes sub to eventID's updates.
func (h *Hub) Join(sub *Subscriber, eventID string) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	sub.events[eventID] = true
	subs, ok := h.subscriptions[eventID]
	if !ok {
		subs = make(map[*Subscriber]bool)
		h.subscriptions[eventID] = subs
	}
	subs[sub] = true
	slog.Debug("Subscriber joined event", "subscriber_id", sub.ID, "event_id", eventID)
}

// Leave unsubscribes sub from eventID.
func (h *Hub) Leave(sub *Subscriber, eventID string) {
	eventID = strings.TrimSpace(eventID)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sub, eventID)
	slog.Debug("Subscriber left event", "subscriber_id", sub.ID, "event_id", eventID)
}

func (h *Hub) leaveLocked(sub *Subscriber, eventID string) {
	delete(sub.events, eventID)
	if subs, ok := h.subscriptions[eventID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscriptions, eventID)
		}
	}
}

// Close removes sub from every event and closes its Outbound channel.
// Safe to call more than once.
func (h *Hub) Close(sub *Subscriber) {
	sub.closeOnce.Do(func() {
		close(sub.done)
		h.mu.Lock()
		for eventID := range sub.events {
			h.leaveLocked(sub, eventID)
		}
		h.mu.Unlock()
		close(sub.Outbound)
		metrics.Subscribers.Dec()
	})
}

// Publish sends the snapshot to every subscriber of its event.
func (h *Hub) Publish(_ context.Context, snapshot *models.Aggregate) error {
	h.Deliver(Message{Type: TypeEventUpdated, EventID: snapshot.Event.ID, Snapshot: snapshot})
	return nil
}

// Deliver fans msg out to local subscribers of msg.EventID. Delivery is
// at-most-once: a subscriber whose buffer is full misses the message and
// must refetch the aggregate.
func (h *Hub) Deliver(msg Message) {
	if msg.EventID == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscriptions[msg.EventID] {
		if sub.enqueue(msg) {
			metrics.BroadcastDeliveries.WithLabelValues("delivered").Inc()
			continue
		}
		metrics.BroadcastDeliveries.WithLabelValues("dropped").Inc()
		slog.Warn("Dropping snapshot; subscriber buffer full", "subscriber_id", sub.ID, "event_id", msg.EventID)
	}
}

// SubscriberCount returns how many subscribers follow eventID.
func (h *Hub) SubscriberCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[eventID])
}
