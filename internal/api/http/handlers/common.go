package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-console/internal/api/dto"
	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/guard"
	apperrors "github.com/spec-kit/coop-console/pkg/util"
)

func clientID(c *fiber.Ctx) (domain.ClientID, error) {
	id, ok := auth.ClientIDFromContext(c)
	if !ok {
		return "", apperrors.NewInternalError(nil)
	}
	return id, nil
}

// landingFor is where a browser goes after its session changed.
func landingFor(session domain.Session) string {
	if session.HasRole() {
		return session.Role.HomeRoute()
	}
	return guard.RootPath
}

// respondNavigation redirects form posts and answers JSON callers with the target.
func respondNavigation(c *fiber.Ctx, session domain.Session) error {
	target := landingFor(session)
	if c.Is("json") {
		return c.JSON(fiber.Map{"data": dto.LoginResponse{
			Session:  dto.NewSessionResponse(session),
			Redirect: target,
		}})
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}
