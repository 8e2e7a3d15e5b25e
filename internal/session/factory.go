package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/events"
	"github.com/spec-kit/coop-console/internal/storage"
)

// Factory builds per-client token stores and hooks over shared infrastructure.
type Factory struct {
	backend  storage.Backend
	decoder  *auth.TokenDecoder
	notifier events.Notifier
	logger   *zap.Logger
}

// NewFactory constructs a factory.
func NewFactory(backend storage.Backend, decoder *auth.TokenDecoder, notifier events.Notifier, logger *zap.Logger) *Factory {
	return &Factory{backend: backend, decoder: decoder, notifier: notifier, logger: logger}
}

// Storage returns the client's namespace.
func (f *Factory) Storage(client domain.ClientID) storage.ClientStorage {
	return f.backend.Scope(client)
}

// Tokens returns the client's token store.
func (f *Factory) Tokens(client domain.ClientID) *auth.TokenStore {
	return auth.NewTokenStore(f.backend.Scope(client), f.decoder, f.logger.With(zap.String("client_id", string(client))))
}

// Notifier exposes the change notifier.
func (f *Factory) Notifier() events.Notifier {
	return f.notifier
}

// Resolve computes the client's session once.
func (f *Factory) Resolve(ctx context.Context, client domain.ClientID) domain.Session {
	return Resolve(ctx, f.Tokens(client), f.Storage(client))
}

// NewHook returns an unmounted hook for client.
func (f *Factory) NewHook(client domain.ClientID) *Hook {
	tokens := f.Tokens(client)
	store := f.Storage(client)
	return NewHook(client, func(ctx context.Context) domain.Session {
		return Resolve(ctx, tokens, store)
	}, f.notifier)
}
