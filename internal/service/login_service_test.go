package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/backend"
	"github.com/spec-kit/coop-console/internal/config"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/events"
	"github.com/spec-kit/coop-console/internal/session"
	"github.com/spec-kit/coop-console/internal/storage"
	apperrors "github.com/spec-kit/coop-console/pkg/util"
)

const testSecret = "login-secret"

type MockLoginClient struct {
	mock.Mock
}

func (m *MockLoginClient) Login(ctx context.Context, req backend.LoginRequest) (backend.LoginResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(backend.LoginResponse), args.Error(1)
}

type fixture struct {
	svc      *LoginService
	client   *MockLoginClient
	sessions *session.Factory
	notifier *events.InMemoryNotifier
}

func newFixture(t *testing.T, demoEnabled bool) fixture {
	t.Helper()
	notifier := events.NewInMemoryNotifier()
	sessions := session.NewFactory(storage.NewMemoryBackend(), auth.NewTokenDecoder(testSecret), notifier, zap.NewNop())
	demo, err := auth.NewDemoDirectory([]config.DemoAccount{
		{Username: "branch", Password: "branch-pw", Role: "BRANCH"},
	}, bcrypt.MinCost)
	require.NoError(t, err)

	client := new(MockLoginClient)
	svc := NewLoginService(LoginDependencies{
		Backend:     client,
		Sessions:    sessions,
		Demo:        demo,
		DemoEnabled: demoEnabled,
	})
	return fixture{svc: svc, client: client, sessions: sessions, notifier: notifier}
}

func token(t *testing.T, role domain.Role) string {
	t.Helper()
	tok, _, err := auth.NewTokenIssuer(testSecret, 5).Issue(domain.Identity{SubjectID: "s-1", Role: role})
	require.NoError(t, err)
	return tok
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestLoginStoresCredentialAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	cid := domain.ClientID("c1")
	tok := token(t, domain.RoleAdmin)

	f.client.On("Login", mock.Anything, backend.LoginRequest{Email: "admin@coop.test", Password: "pw"}).
		Return(backend.LoginResponse{Success: true, Token: tok, Message: "ok"}, nil)

	var notified []events.Event
	f.notifier.Subscribe(cid, func(_ context.Context, e events.Event) { notified = append(notified, e) })

	sess, err := f.svc.Login(ctx, cid, " admin@coop.test ", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.Session{IsLoggedIn: true, Role: domain.RoleAdmin}, sess)

	stored, ok := f.sessions.Tokens(cid).GetCredential(ctx)
	assert.True(t, ok)
	assert.Equal(t, tok, stored)

	require.Len(t, notified, 1)
	assert.Equal(t, domain.KeyToken, notified[0].Key)
	f.client.AssertExpectations(t)
}

func TestLoginRejectedByBackend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	f.client.On("Login", mock.Anything, mock.Anything).
		Return(backend.LoginResponse{Success: false, Message: "invalid credentials"}, nil)

	_, err := f.svc.Login(ctx, "c1", "a@b.c", "bad")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
	assert.Contains(t, err.Error(), "invalid credentials")

	_, ok := f.sessions.Tokens("c1").GetCredential(ctx)
	assert.False(t, ok)
}

func TestLoginSuccessWithoutToken(t *testing.T) {
	f := newFixture(t, false)
	f.client.On("Login", mock.Anything, mock.Anything).
		Return(backend.LoginResponse{Success: true}, nil)

	_, err := f.svc.Login(context.Background(), "c1", "a@b.c", "pw")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestLoginBackendDown(t *testing.T) {
	f := newFixture(t, false)
	f.client.On("Login", mock.Anything, mock.Anything).
		Return(backend.LoginResponse{}, backend.ErrUnavailable)

	_, err := f.svc.Login(context.Background(), "c1", "a@b.c", "pw")
	assert.Equal(t, "BAD_GATEWAY", domainCode(t, err))
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Login(context.Background(), "c1", "  ", "pw")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	f.client.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestDemoLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	cid := domain.ClientID("demo")

	sess, err := f.svc.DemoLogin(ctx, cid, "branch", "branch-pw")
	require.NoError(t, err)
	assert.Equal(t, domain.Session{IsLoggedIn: true, Role: domain.RoleBranch}, sess)

	val, ok, err := f.sessions.Storage(cid).Get(ctx, domain.KeyUserRole)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BRANCH", val)

	_, hasToken := f.sessions.Tokens(cid).GetCredential(ctx)
	assert.False(t, hasToken)
}

func TestDemoLoginFailures(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.DemoLogin(context.Background(), "c", "branch", "nope")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	_, err = f.svc.DemoLogin(context.Background(), "c", "", "nope")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	disabled := newFixture(t, false)
	_, err = disabled.svc.DemoLogin(context.Background(), "c", "branch", "branch-pw")
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestLogoutClearsBothPaths(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	cid := domain.ClientID("both")

	f.client.On("Login", mock.Anything, mock.Anything).
		Return(backend.LoginResponse{Success: true, Token: token(t, domain.RoleUser)}, nil)

	_, err := f.svc.DemoLogin(ctx, cid, "branch", "branch-pw")
	require.NoError(t, err)
	sess, err := f.svc.Login(ctx, cid, "u@coop.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, sess.Role, "token role takes precedence over fallback")

	hook := f.sessions.NewHook(cid)
	hook.Mount(ctx)
	defer hook.Close()

	require.NoError(t, f.svc.Logout(ctx, cid))
	assert.Equal(t, domain.Session{}, f.svc.Session(ctx, cid))
	assert.Equal(t, domain.Session{}, hook.State())
}

type failingDeleteBackend struct {
	*storage.MemoryBackend
	key string
}

func (b failingDeleteBackend) Scope(client domain.ClientID) storage.ClientStorage {
	return failingDeleteStorage{ClientStorage: b.MemoryBackend.Scope(client), key: b.key}
}

type failingDeleteStorage struct {
	storage.ClientStorage
	key string
}

func (s failingDeleteStorage) Delete(ctx context.Context, key string) error {
	if key == s.key {
		return errors.New("storage unavailable")
	}
	return s.ClientStorage.Delete(ctx, key)
}

func TestLogoutPartialFailureStillNotifies(t *testing.T) {
	tests := []struct {
		name      string
		failKey   string
		wantState domain.Session
	}{
		{name: "fallback delete fails", failKey: domain.KeyUserRole, wantState: domain.Session{IsLoggedIn: true, Role: domain.RoleBranch}},
		{name: "token delete fails", failKey: domain.KeyToken, wantState: domain.Session{IsLoggedIn: true, Role: domain.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cid := domain.ClientID("partial")
			backend := failingDeleteBackend{MemoryBackend: storage.NewMemoryBackend(), key: tt.failKey}
			sessions := session.NewFactory(backend, auth.NewTokenDecoder(testSecret), events.NewInMemoryNotifier(), zap.NewNop())
			svc := NewLoginService(LoginDependencies{Sessions: sessions})

			require.NoError(t, sessions.Tokens(cid).SetCredential(ctx, token(t, domain.RoleAdmin)))
			require.NoError(t, sessions.Storage(cid).Set(ctx, domain.KeyUserRole, "BRANCH"))

			hook := sessions.NewHook(cid)
			require.Equal(t, domain.RoleAdmin, hook.Mount(ctx).Role)
			defer hook.Close()

			err := svc.Logout(ctx, cid)
			assert.Equal(t, "INTERNAL_ERROR", domainCode(t, err))
			assert.Equal(t, tt.wantState, svc.Session(ctx, cid))
			assert.Equal(t, tt.wantState, hook.State(), "hook follows the key that was removed")
		})
	}
}

type failingNotifier struct{ *events.InMemoryNotifier }

func (failingNotifier) Publish(context.Context, events.Event) error {
	return errors.New("relay down")
}

func TestNotifyFailureDoesNotFailLogin(t *testing.T) {
	notifier := failingNotifier{events.NewInMemoryNotifier()}
	sessions := session.NewFactory(storage.NewMemoryBackend(), auth.NewTokenDecoder(testSecret), notifier, zap.NewNop())
	client := new(MockLoginClient)
	client.On("Login", mock.Anything, mock.Anything).
		Return(backend.LoginResponse{Success: true, Token: token(t, domain.RoleAgent)}, nil)

	svc := NewLoginService(LoginDependencies{Backend: client, Sessions: sessions})
	sess, err := svc.Login(context.Background(), "c", "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, sess.Role)
}
