package session

import (
	"context"

	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/storage"
)

// Resolve derives the session for one client. The credential's role claim
// takes precedence over the demo fallback role; either one is enough to count
// as logged in. Resolve never writes to storage.
func Resolve(ctx context.Context, tokens auth.CredentialRepository, store storage.ClientStorage) domain.Session {
	fallback := fallbackRole(ctx, store)

	role := tokens.GetRole(ctx)
	if role.IsZero() {
		role = fallback
	}

	_, hasCredential := tokens.GetCredential(ctx)
	return domain.Session{
		IsLoggedIn: hasCredential || !fallback.IsZero(),
		Role:       role,
	}
}

func fallbackRole(ctx context.Context, store storage.ClientStorage) domain.Role {
	val, ok, err := store.Get(ctx, domain.KeyUserRole)
	if err != nil || !ok {
		return ""
	}
	return domain.Role(val)
}
