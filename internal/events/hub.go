package events

import (
	"context"
	"sync"
	"sync/atomic"

	"task-tracker/internal/logging"

	"github.com/sirupsen/logrus"
)

// Subscription is one connected client. Its channel is never closed; watch
// Done to learn that the subscription or the hub went away.
type Subscription struct {
	id     uint64
	events chan Event
	done   chan struct{}
	once   sync.Once
	hub    *Hub
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscription. It is safe to call more than once and
// concurrently with Publish.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

func (s *Subscription) finish() {
	s.once.Do(func() { close(s.done) })
}

// Hub is the process-local bus. Publishers read an immutable snapshot of the
// subscriber list and never wait on subscribers: a full buffer drops the
// event for that subscriber only.
type Hub struct {
	mu          sync.Mutex
	subscribers atomic.Pointer[[]*Subscription]
	started     atomic.Bool
	closed      bool
	nextID      atomic.Uint64

	buffer   int
	logger   logrus.FieldLogger
	observer Observer
}

func NewHub(buffer int, logger logrus.FieldLogger, observer Observer) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	if observer == nil {
		observer = noopObserver{}
	}

	h := &Hub{
		buffer:   buffer,
		logger:   logging.OrDiscard(logger).WithField("component", "event_hub"),
		observer: observer,
	}
	empty := []*Subscription{}
	h.subscribers.Store(&empty)
	return h
}

// Start makes the hub accept publishes.
func (h *Hub) Start() {
	h.started.Store(true)
}

func (h *Hub) Started() bool {
	return h.started.Load()
}

// Close stops publishing and releases every subscriber. Subscriptions
// taken afterwards are already finished.
func (h *Hub) Close() {
	h.started.Store(false)

	h.mu.Lock()
	h.closed = true
	subs := *h.subscribers.Load()
	empty := []*Subscription{}
	h.subscribers.Store(&empty)
	h.mu.Unlock()

	for _, s := range subs {
		s.finish()
	}
	h.observer.Subscribers(0)
}

func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		id:     h.nextID.Add(1),
		events: make(chan Event, h.buffer),
		done:   make(chan struct{}),
		hub:    h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.finish()
		return s
	}
	current := *h.subscribers.Load()
	next := make([]*Subscription, len(current), len(current)+1)
	copy(next, current)
	next = append(next, s)
	h.subscribers.Store(&next)
	h.mu.Unlock()

	h.observer.Subscribers(len(next))
	h.logger.WithField("subscriber", s.id).Debug("Subscriber connected")
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	current := *h.subscribers.Load()
	next := make([]*Subscription, 0, len(current))
	for _, existing := range current {
		if existing != s {
			next = append(next, existing)
		}
	}
	removed := len(next) != len(current)
	h.subscribers.Store(&next)
	h.mu.Unlock()

	s.finish()
	if removed {
		h.observer.Subscribers(len(next))
		h.logger.WithField("subscriber", s.id).Debug("Subscriber disconnected")
	}
}

func (h *Hub) SubscriberCount() int {
	return len(*h.subscribers.Load())
}

func (h *Hub) Publish(_ context.Context, name string, payload interface{}) error {
	if !h.Started() {
		return ErrNotInitialized
	}

	event, err := NewEvent(name, payload)
	if err != nil {
		return err
	}
	h.Deliver(event)
	return nil
}

// Deliver fans an already encoded event out to the current subscribers.
func (h *Hub) Deliver(event Event) {
	h.observer.Published(event.Name)

	for _, s := range *h.subscribers.Load() {
		select {
		case s.events <- event:
		default:
			h.observer.Dropped(event.Name)
			h.logger.WithFields(logrus.Fields{
				"subscriber": s.id,
				"event":      event.Name,
			}).Debug("Subscriber buffer full, event dropped")
		}
	}
}
