package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-console/internal/api/dto"
	"github.com/spec-kit/coop-console/internal/service"
)

// AuthHandler exposes login, demo login and logout.
type AuthHandler struct {
	login       *service.LoginService
	demoEnabled bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(login *service.LoginService, demoEnabled bool) *AuthHandler {
	return &AuthHandler{login: login, demoEnabled: demoEnabled}
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(dto.PageResponse{
		Page:  "login",
		Title: "Sign in",
		Data: map[string]any{
			"demoLogin": h.demoEnabled,
			"action":    "/login",
		},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	cid, err := clientID(c)
	if err != nil {
		return err
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.login.Login(c.UserContext(), cid, req.Email, req.Password)
	if err != nil {
		return err
	}
	return respondNavigation(c, session)
}

// DemoLogin handles POST /login/demo.
func (h *AuthHandler) DemoLogin(c *fiber.Ctx) error {
	cid, err := clientID(c)
	if err != nil {
		return err
	}

	var req dto.DemoLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.login.DemoLogin(c.UserContext(), cid, req.Username, req.Password)
	if err != nil {
		return err
	}
	return respondNavigation(c, session)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	cid, err := clientID(c)
	if err != nil {
		return err
	}
	if err := h.login.Logout(c.UserContext(), cid); err != nil {
		return err
	}
	return respondNavigation(c, h.login.Session(c.UserContext(), cid))
}
