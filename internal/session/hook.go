package session

import (
	"context"
	"sync"

	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/events"
)

// Hook is a live view of one client's session. It recomputes on Mount and on
// every storage_changed notification for its client until Close.
type Hook struct {
	client   domain.ClientID
	resolve  func(context.Context) domain.Session
	notifier events.Notifier

	// resolving serialises recomputes so the last resolve is the one stored.
	resolving sync.Mutex

	mu          sync.RWMutex
	state       domain.Session
	unsubscribe func()
	changes     chan struct{}
}

// NewHook builds an unmounted hook.
func NewHook(client domain.ClientID, resolve func(context.Context) domain.Session, notifier events.Notifier) *Hook {
	return &Hook{
		client:   client,
		resolve:  resolve,
		notifier: notifier,
		changes:  make(chan struct{}, 1),
	}
}

// Mount computes the initial state and subscribes to change notifications.
// Mounting an already mounted hook only recomputes.
func (h *Hook) Mount(ctx context.Context) domain.Session {
	h.mu.Lock()
	if h.unsubscribe == nil {
		h.unsubscribe = h.notifier.Subscribe(h.client, h.onChange)
	}
	h.mu.Unlock()

	return h.recompute(ctx)
}

// State returns the most recently computed session.
func (h *Hook) State() domain.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Changes is signalled after each recompute. Signals coalesce while unread.
func (h *Hook) Changes() <-chan struct{} {
	return h.changes
}

// Mounted reports whether the hook is currently subscribed.
func (h *Hook) Mounted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.unsubscribe != nil
}

// Close unsubscribes. It is safe to call more than once.
func (h *Hook) Close() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (h *Hook) onChange(ctx context.Context, event events.Event) {
	if event.Type != events.EventStorageChanged {
		return
	}
	h.recompute(ctx)
}

func (h *Hook) recompute(ctx context.Context) domain.Session {
	h.resolving.Lock()
	defer h.resolving.Unlock()

	state := h.resolve(ctx)

	h.mu.Lock()
	h.state = state
	h.mu.Unlock()

	select {
	case h.changes <- struct{}{}:
	default:
	}
	return state
}
