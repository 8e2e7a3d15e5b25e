package events

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/spec-kit/coop-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventStorageChanged fires after a client's token or userRole key was written or removed.
	EventStorageChanged EventType = "storage_changed"
)

// Event is a change notification scoped to one client namespace.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	ClientID  domain.ClientID `json:"client_id"`
	Key       string          `json:"key,omitempty"`
	Source    string          `json:"source,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewStorageChanged builds a storage_changed event for client and key.
// An empty key means several keys changed at once.
func NewStorageChanged(client domain.ClientID, key string) Event {
	now := time.Now().UTC()
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String(),
		Type:      EventStorageChanged,
		ClientID:  client,
		Key:       key,
		Timestamp: now,
	}
}
