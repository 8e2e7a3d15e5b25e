package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/storage"
)

// CredentialRepository owns the persisted bearer credential of one client.
type CredentialRepository interface {
	SetCredential(ctx context.Context, token string) error
	GetCredential(ctx context.Context) (string, bool)
	DecodeIdentity(ctx context.Context) (domain.Identity, bool)
	GetRole(ctx context.Context) domain.Role
	GetMemberReference(ctx context.Context) (string, bool)
	GetSubjectID(ctx context.Context) (string, bool)
	ClearCredential(ctx context.Context) error
}

// TokenStore keeps the credential under the "token" key of a client's storage.
// Nothing is cached; every call reads storage again.
type TokenStore struct {
	storage storage.ClientStorage
	decoder *TokenDecoder
	logger  *zap.Logger
}

var _ CredentialRepository = (*TokenStore)(nil)

// NewTokenStore constructs a store over a client namespace.
func NewTokenStore(store storage.ClientStorage, decoder *TokenDecoder, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{storage: store, decoder: decoder, logger: logger}
}

// SetCredential overwrites the stored credential without inspecting it.
func (s *TokenStore) SetCredential(ctx context.Context, token string) error {
	return s.storage.Set(ctx, domain.KeyToken, token)
}

// GetCredential returns the stored credential. An empty value counts as absent.
func (s *TokenStore) GetCredential(ctx context.Context) (string, bool) {
	val, ok, err := s.storage.Get(ctx, domain.KeyToken)
	if err != nil {
		s.logger.Warn("read credential", zap.Error(err))
		return "", false
	}
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// DecodeIdentity decodes the stored credential. Any failure yields no identity.
func (s *TokenStore) DecodeIdentity(ctx context.Context) (domain.Identity, bool) {
	token, ok := s.GetCredential(ctx)
	if !ok {
		return domain.Identity{}, false
	}
	identity, err := s.decoder.Decode(token)
	if err != nil {
		s.logger.Warn("failed to decode credential", zap.Error(err))
		return domain.Identity{}, false
	}
	return identity, true
}

// GetRole returns the role claim, or the zero role when there is no identity.
func (s *TokenStore) GetRole(ctx context.Context) domain.Role {
	identity, ok := s.DecodeIdentity(ctx)
	if !ok {
		return ""
	}
	return identity.Role
}

// GetMemberReference returns the optional member claim.
func (s *TokenStore) GetMemberReference(ctx context.Context) (string, bool) {
	identity, ok := s.DecodeIdentity(ctx)
	if !ok || identity.MemberReference == "" {
		return "", false
	}
	return identity.MemberReference, true
}

// GetSubjectID returns the subject claim.
func (s *TokenStore) GetSubjectID(ctx context.Context) (string, bool) {
	identity, ok := s.DecodeIdentity(ctx)
	if !ok {
		return "", false
	}
	return identity.SubjectID, true
}

// ClearCredential removes the stored credential.
func (s *TokenStore) ClearCredential(ctx context.Context) error {
	return s.storage.Delete(ctx, domain.KeyToken)
}
