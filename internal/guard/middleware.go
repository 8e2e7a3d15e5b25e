package guard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/observability"
)

const sessionKey = "console_session"

const (
	guardRoleRestricted = "role_restricted"
	guardPublicOnly     = "public_only"
)

// Resolver computes the current session for a request.
type Resolver func(c *fiber.Ctx) domain.Session

// Guards builds route guard middleware over a shared resolver.
type Guards struct {
	resolve Resolver
	metrics *observability.Metrics
}

// New constructs guards. metrics may be nil.
func New(resolve Resolver, metrics *observability.Metrics) *Guards {
	return &Guards{resolve: resolve, metrics: metrics}
}

// RequireRoles protects a subtree for the given roles. The list is copied at
// registration and cannot change afterwards.
func (g *Guards) RequireRoles(roles ...domain.Role) fiber.Handler {
	allowed := append([]domain.Role(nil), roles...)

	return func(c *fiber.Ctx) error {
		session := g.sessionFor(c)
		return g.apply(c, guardRoleRestricted, EvaluateRoleRestricted(session, allowed))
	}
}

// PublicOnly protects pages that must not be reachable once authenticated.
func (g *Guards) PublicOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := g.sessionFor(c)
		return g.apply(c, guardPublicOnly, EvaluatePublicOnly(session))
	}
}

// Session resolves and stashes the session without gating, for unrestricted routes.
func (g *Guards) Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		g.sessionFor(c)
		return c.Next()
	}
}

func (g *Guards) sessionFor(c *fiber.Ctx) domain.Session {
	if session, ok := SessionFromContext(c); ok {
		return session
	}
	session := g.resolve(c)
	c.Locals(sessionKey, session)
	return session
}

func (g *Guards) apply(c *fiber.Ctx, guard string, outcome Outcome) error {
	g.metrics.RecordGuardDecision(guard, string(outcome.Kind))
	if outcome.Allowed() {
		return c.Next()
	}
	return c.Redirect(outcome.Target, fiber.StatusFound)
}

// SessionFromContext returns the session resolved by a guard earlier in the chain.
func SessionFromContext(c *fiber.Ctx) (domain.Session, bool) {
	session, ok := c.Locals(sessionKey).(domain.Session)
	return session, ok
}
