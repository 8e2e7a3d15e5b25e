package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/coop-console/internal/api/http/handlers"
	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/backend"
	"github.com/spec-kit/coop-console/internal/config"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/events"
	"github.com/spec-kit/coop-console/internal/guard"
	"github.com/spec-kit/coop-console/internal/observability"
	"github.com/spec-kit/coop-console/internal/service"
	"github.com/spec-kit/coop-console/internal/session"
	"github.com/spec-kit/coop-console/internal/storage"
)

const testSecret = "router-secret"

type stubBackend struct {
	accounts map[string]domain.Identity
}

func (s stubBackend) Login(_ context.Context, req backend.LoginRequest) (backend.LoginResponse, error) {
	identity, ok := s.accounts[req.Email]
	if !ok || req.Password != "pw" {
		return backend.LoginResponse{Success: false, Message: "invalid credentials"}, nil
	}
	token, _, err := auth.NewTokenIssuer(testSecret, 5).Issue(identity)
	if err != nil {
		return backend.LoginResponse{}, err
	}
	return backend.LoginResponse{Success: true, Token: token, Message: "welcome"}, nil
}

type testServer struct {
	app      *fiber.App
	sessions *session.Factory
	done     chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	backendStore := storage.NewMemoryBackend()
	sessions := session.NewFactory(backendStore, auth.NewTokenDecoder(testSecret), events.NewInMemoryNotifier(), logger)

	demo, err := auth.NewDemoDirectory([]config.DemoAccount{{Username: "advisor", Password: "adv", Role: "ADVISOR"}}, bcrypt.MinCost)
	require.NoError(t, err)

	login := service.NewLoginService(service.LoginDependencies{
		Backend: stubBackend{accounts: map[string]domain.Identity{
			"admin@coop.test": {SubjectID: "adm-1", Role: domain.RoleAdmin},
			"agent@coop.test": {SubjectID: "agt-1", Role: domain.RoleAgent, MemberReference: "AG-42"},
		}},
		Sessions:    sessions,
		Demo:        demo,
		DemoEnabled: true,
		Metrics:     metrics,
		Logger:      logger,
	})

	done := make(chan struct{})
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second, auth.NewClientMiddleware(config.AuthConfig{ClientCookie: "cid"}))
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("coop-console", "test", backendStore),
		Auth:    handlers.NewAuthHandler(login, true),
		Pages:   handlers.NewPagesHandler(sessions),
		Session: handlers.NewSessionHandler(sessions, done, logger),
		Guards:  guard.New(SessionResolver(sessions), metrics),
		Metrics: metrics,
	})
	return &testServer{app: app, sessions: sessions, done: done}
}

func (s *testServer) do(t *testing.T, req *nethttp.Request, cid string) *nethttp.Response {
	t.Helper()
	req.Header.Set("Cookie", "cid="+cid)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	return resp
}

func formPost(path string, values url.Values) *nethttp.Request {
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func jsonPost(path string, body any) *nethttp.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(string(raw)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestRestrictedRouteWithoutSessionRedirectsToRoot(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/admin/dashboard", nil), uuid.NewString())
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestLoginFlowAndGuards(t *testing.T) {
	srv := newTestServer(t)
	cid := uuid.NewString()

	resp := srv.do(t, formPost("/login", url.Values{"email": {"agent@coop.test"}, "password": {"pw"}}), cid)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/agent/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/admin/accounts", nil), cid)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/agent/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/login", nil), cid)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/agent/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/agent/dashboard", nil), cid)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page struct {
		Page    string         `json:"page"`
		Session map[string]any `json:"session"`
		Nav     []any          `json:"nav"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "agent.dashboard", page.Page)
	assert.Equal(t, "AGENT", page.Session["role"])
	assert.Equal(t, "AG-42", page.Data["memberReference"])
	assert.Len(t, page.Nav, len(handlers.RolePages[domain.RoleAgent]))

	resp = srv.do(t, formPost("/logout", nil), cid)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	resp = srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/agent/dashboard", nil), cid)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestJSONLoginRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, jsonPost("/login", map[string]string{"email": "admin@coop.test", "password": "nope"}), uuid.NewString())
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Equal(t, "invalid credentials", body.Error.Message)
}

func TestJSONDemoLogin(t *testing.T) {
	srv := newTestServer(t)
	cid := uuid.NewString()

	resp := srv.do(t, jsonPost("/login/demo", map[string]string{"username": "advisor", "password": "adv"}), cid)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Session  map[string]any `json:"session"`
			Redirect string         `json:"redirect"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/advisor/dashboard", body.Data.Redirect)
	assert.Equal(t, true, body.Data.Session["isLoggedIn"])

	resp = srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/advisor/referrals", nil), cid)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/session", nil), uuid.NewString())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"isLoggedIn":false,"role":null}}`, string(raw))
}

func TestUnrestrictedPages(t *testing.T) {
	srv := newTestServer(t)
	cid := uuid.NewString()

	resp := srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/register?ref=AG-42", nil), cid)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page struct {
		Page string         `json:"page"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "register", page.Page)
	assert.Equal(t, "AG-42", page.Data["referralCode"])

	require.NoError(t, srv.sessions.Storage(domain.ClientID(cid)).Set(context.Background(), domain.KeyUserRole, "BRANCH"))
	resp = srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/", nil), cid)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionStreamSendsInitialState(t *testing.T) {
	srv := newTestServer(t)
	cid := uuid.NewString()
	require.NoError(t, srv.sessions.Storage(domain.ClientID(cid)).Set(context.Background(), domain.KeyUserRole, "BRANCH"))
	close(srv.done)

	resp := srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/session/events", nil), cid)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(fiber.HeaderContentType))

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "event: session", lines[0])
	assert.JSONEq(t, `{"isLoggedIn":true,"role":"BRANCH"}`, strings.TrimPrefix(lines[1], "data: "))
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	srv.do(t, httptest.NewRequest(nethttp.MethodGet, "/user/dashboard", nil), uuid.NewString())

	resp, err = srv.app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `console_guard_decisions_total{guard="role_restricted",outcome="redirect_root"} 1`)
}
