package storage

import (
	"context"

	"github.com/spec-kit/coop-console/internal/domain"
)

// ClientStorage is one browser's persistent key/value namespace.
// Values are stored exactly as given.
type ClientStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Backend hands out client namespaces over a shared driver.
type Backend interface {
	Scope(client domain.ClientID) ClientStorage
	Ping(ctx context.Context) error
	Close()
}
