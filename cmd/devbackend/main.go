// Command devbackend stands in for the society API's login endpoint during
// local development. It signs tokens with AUTH_JWT_SECRET for the accounts
// listed in DEV_BACKEND_ACCOUNTS ("email:password:ROLE,...").
package main

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-console/internal/api/dto"
	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/backend"
	"github.com/spec-kit/coop-console/internal/config"
	"github.com/spec-kit/coop-console/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := zap.Must(zap.NewDevelopment())
	defer logger.Sync() //nolint:errcheck

	accounts, err := config.ParseDemoAccounts(os.Getenv("DEV_BACKEND_ACCOUNTS"))
	if err != nil {
		logger.Fatal("invalid DEV_BACKEND_ACCOUNTS", zap.Error(err))
	}
	addr := os.Getenv("DEV_BACKEND_ADDR")
	if addr == "" {
		addr = "127.0.0.1:9090"
	}

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, 60)
	app := fiber.New()
	app.Post("/auth/login", loginHandler(accounts, issuer, logger))

	logger.Info("dev backend listening", zap.String("addr", addr), zap.Int("accounts", len(accounts)))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("fiber listen", zap.Error(err))
	}
}

func loginHandler(accounts []config.DemoAccount, issuer *auth.TokenIssuer, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(backend.LoginResponse{Message: "invalid payload"})
		}

		for _, acc := range accounts {
			if !strings.EqualFold(acc.Username, req.Email) || acc.Password != req.Password {
				continue
			}
			token, _, err := issuer.Issue(domain.Identity{
				SubjectID:       acc.Username,
				Role:            domain.Role(acc.Role),
				MemberReference: "M-" + strings.ToUpper(strings.SplitN(acc.Username, "@", 2)[0]),
			})
			if err != nil {
				logger.Error("issue token", zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(backend.LoginResponse{Message: "token error"})
			}
			return c.JSON(backend.LoginResponse{Success: true, Token: token, Message: "login successful"})
		}

		return c.Status(fiber.StatusUnauthorized).JSON(backend.LoginResponse{Message: "invalid credentials"})
	}
}
