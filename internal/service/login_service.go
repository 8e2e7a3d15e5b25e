package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/backend"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/events"
	"github.com/spec-kit/coop-console/internal/observability"
	"github.com/spec-kit/coop-console/internal/session"
	apperrors "github.com/spec-kit/coop-console/pkg/util"
)

// LoginClient is the backend login call.
type LoginClient interface {
	Login(ctx context.Context, req backend.LoginRequest) (backend.LoginResponse, error)
}

// LoginService runs the login, demo login and logout flows for a client.
type LoginService struct {
	backend  LoginClient
	sessions *session.Factory
	demo     *auth.DemoDirectory
	demoOn   bool
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// LoginDependencies encapsulates collaborators of the login service.
type LoginDependencies struct {
	Backend     LoginClient
	Sessions    *session.Factory
	Demo        *auth.DemoDirectory
	DemoEnabled bool
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewLoginService builds the service.
func NewLoginService(deps LoginDependencies) *LoginService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginService{
		backend:  deps.Backend,
		sessions: deps.Sessions,
		demo:     deps.Demo,
		demoOn:   deps.DemoEnabled,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Login authenticates against the backend and stores the issued credential.
func (s *LoginService) Login(ctx context.Context, client domain.ClientID, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, apperrors.NewValidationError("email and password required", nil)
	}

	resp, err := s.backend.Login(ctx, backend.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.metrics.RecordLogin("backend", false)
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Session{}, err
		}
		return domain.Session{}, apperrors.NewBadGateway("login service unavailable", err)
	}
	if !resp.Success || resp.Token == "" {
		s.metrics.RecordLogin("backend", false)
		message := resp.Message
		if message == "" {
			message = "login failed"
		}
		return domain.Session{}, apperrors.NewUnauthorized(message)
	}

	if err := s.sessions.Tokens(client).SetCredential(ctx, resp.Token); err != nil {
		s.metrics.RecordLogin("backend", false)
		return domain.Session{}, apperrors.NewInternalError(err)
	}
	s.notify(ctx, client, domain.KeyToken)
	s.metrics.RecordLogin("backend", true)

	return s.sessions.Resolve(ctx, client), nil
}

// DemoLogin checks a static demo account and stores its role as the fallback role.
func (s *LoginService) DemoLogin(ctx context.Context, client domain.ClientID, username, password string) (domain.Session, error) {
	if !s.demoOn || s.demo.Len() == 0 {
		return domain.Session{}, apperrors.NewForbidden("demo login disabled")
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return domain.Session{}, apperrors.NewValidationError("username and password required", nil)
	}

	role, err := s.demo.Verify(username, password)
	if err != nil {
		s.metrics.RecordLogin("demo", false)
		return domain.Session{}, apperrors.NewUnauthorized(err.Error())
	}

	if err := s.sessions.Storage(client).Set(ctx, domain.KeyUserRole, string(role)); err != nil {
		s.metrics.RecordLogin("demo", false)
		return domain.Session{}, apperrors.NewInternalError(err)
	}
	s.notify(ctx, client, domain.KeyUserRole)
	s.metrics.RecordLogin("demo", true)

	return s.sessions.Resolve(ctx, client), nil
}

// Logout removes both the credential and the fallback role. Both deletes are
// attempted, and a change is published if either one took effect.
func (s *LoginService) Logout(ctx context.Context, client domain.ClientID) error {
	tokenErr := s.sessions.Tokens(client).ClearCredential(ctx)
	roleErr := s.sessions.Storage(client).Delete(ctx, domain.KeyUserRole)

	switch {
	case tokenErr == nil && roleErr == nil:
		s.notify(ctx, client, "")
	case tokenErr == nil:
		s.notify(ctx, client, domain.KeyToken)
	case roleErr == nil:
		s.notify(ctx, client, domain.KeyUserRole)
	}

	if err := errors.Join(tokenErr, roleErr); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Session returns the client's current session.
func (s *LoginService) Session(ctx context.Context, client domain.ClientID) domain.Session {
	return s.sessions.Resolve(ctx, client)
}

func (s *LoginService) notify(ctx context.Context, client domain.ClientID, key string) {
	if err := s.sessions.Notifier().Publish(ctx, events.NewStorageChanged(client, key)); err != nil {
		s.logger.Warn("publish storage change", zap.String("client_id", string(client)), zap.Error(err))
	}
}
