package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-console/internal/config"
)

// ErrUnavailable wraps transport failures and unreadable backend responses.
var ErrUnavailable = errors.New("backend unavailable")

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the backend's login answer.
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// Client calls the society's business API.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient builds a client for cfg.BaseURL.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{baseURL: cfg.BaseURL, timeout: cfg.Timeout()}
}

// Login posts the credentials and decodes the answer. A rejected login is a
// normal response with Success false, not an error.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	timeout, err := c.budget(ctx)
	if err != nil {
		return LoginResponse{}, err
	}

	agent := fiber.Post(c.baseURL + "/auth/login").
		Timeout(timeout).
		JSON(req)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return LoginResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(errs...))
	}

	var resp LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return LoginResponse{}, fmt.Errorf("%w: status %d: decode login response: %v", ErrUnavailable, status, err)
	}
	if status >= fiber.StatusInternalServerError && !resp.Success {
		return resp, fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, resp.Message)
	}
	return resp, nil
}

func (c *Client) budget(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}
	return timeout, nil
}
