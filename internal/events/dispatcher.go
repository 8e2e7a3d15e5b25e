package events

import (
	"context"
	"sync"

	"github.com/spec-kit/coop-console/internal/domain"
)

// Handler reacts to a published event.
type Handler func(context.Context, Event)

// Notifier fans change notifications out to subscribers of a client.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(client domain.ClientID, handler Handler) (unsubscribe func())
}

type subscription struct {
	id      uint64
	handler Handler
}

// InMemoryNotifier invokes handlers synchronously in the publisher's goroutine.
type InMemoryNotifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[domain.ClientID][]subscription
}

// NewInMemoryNotifier creates a notifier instance.
func NewInMemoryNotifier() *InMemoryNotifier {
	return &InMemoryNotifier{subs: make(map[domain.ClientID][]subscription)}
}

// Publish invokes every handler subscribed to the event's client.
func (n *InMemoryNotifier) Publish(ctx context.Context, event Event) error {
	n.mu.RLock()
	subs := append([]subscription(nil), n.subs[event.ClientID]...)
	n.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(ctx, event)
	}
	return nil
}

// Subscribe registers handler for client. The returned func removes exactly
// that registration and is safe to call more than once.
func (n *InMemoryNotifier) Subscribe(client domain.ClientID, handler Handler) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs[client] = append(n.subs[client], subscription{id: id, handler: handler})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(client, id) })
	}
}

// Subscribers returns the number of live subscriptions for client.
func (n *InMemoryNotifier) Subscribers(client domain.ClientID) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[client])
}

func (n *InMemoryNotifier) remove(client domain.ClientID, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs := n.subs[client]
	for i, sub := range subs {
		if sub.id == id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(n.subs, client)
		return
	}
	n.subs[client] = subs
}
