package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/coop-console/internal/api/http/handlers"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/guard"
	"github.com/spec-kit/coop-console/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Pages   *handlers.PagesHandler
	Session *handlers.SessionHandler
	Guards  *guard.Guards
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes into three classes: public-only,
// role-restricted and unrestricted.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	// Unrestricted.
	withSession := cfg.Guards.Session()
	app.Get("/", withSession, cfg.Pages.Landing)
	app.Get("/register", withSession, cfg.Pages.Register)
	app.Get("/session", cfg.Session.Current)
	app.Get("/session/events", cfg.Session.Stream)
	app.Post("/logout", cfg.Auth.Logout)

	// Public-only.
	login := app.Group("/login", cfg.Guards.PublicOnly())
	login.Get("", cfg.Auth.LoginPage)
	login.Post("", cfg.Auth.Login)
	login.Post("/demo", cfg.Auth.DemoLogin)

	// Role-restricted.
	for _, role := range domain.KnownRoles {
		area := app.Group("/"+strings.ToLower(string(role)), cfg.Guards.RequireRoles(role))
		for _, page := range handlers.RolePages[role] {
			area.Get("/"+page.Slug, cfg.Pages.Page(role, page))
		}
	}
}
