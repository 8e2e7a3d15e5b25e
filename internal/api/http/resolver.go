package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/guard"
	"github.com/spec-kit/coop-console/internal/session"
)

// SessionResolver resolves the session of the request's client. Requests
// without a client id have no session.
func SessionResolver(sessions *session.Factory) guard.Resolver {
	return func(c *fiber.Ctx) domain.Session {
		cid, ok := auth.ClientIDFromContext(c)
		if !ok {
			return domain.Session{}
		}
		return sessions.Resolve(c.UserContext(), cid)
	}
}
