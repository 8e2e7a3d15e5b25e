package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/coop-console/internal/config"
	"github.com/spec-kit/coop-console/internal/domain"
)

const clientKey = "console_client_id"

// ClientMiddleware binds every request to a browser storage namespace via a
// long-lived cookie, issuing a fresh id when the cookie is missing or malformed.
type ClientMiddleware struct {
	cookie string
	secure bool
	maxAge time.Duration
}

// NewClientMiddleware constructs middleware.
func NewClientMiddleware(cfg config.AuthConfig) *ClientMiddleware {
	name := cfg.ClientCookie
	if name == "" {
		name = "console_cid"
	}
	maxAge := time.Duration(cfg.CookieMaxAgeHr) * time.Hour
	if maxAge <= 0 {
		maxAge = 365 * 24 * time.Hour
	}
	return &ClientMiddleware{cookie: name, secure: cfg.CookieSecure, maxAge: maxAge}
}

// Handle resolves the client id for the request.
func (m *ClientMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookie)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		id = uuid.New()
		c.Cookie(&fiber.Cookie{
			Name:     m.cookie,
			Value:    id.String(),
			Path:     "/",
			MaxAge:   int(m.maxAge.Seconds()),
			Secure:   m.secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	c.Locals(clientKey, domain.ClientID(id.String()))
	return c.Next()
}

// ClientIDFromContext retrieves the client bound by ClientMiddleware.
func ClientIDFromContext(c *fiber.Ctx) (domain.ClientID, bool) {
	id, ok := c.Locals(clientKey).(domain.ClientID)
	return id, ok && id != ""
}
