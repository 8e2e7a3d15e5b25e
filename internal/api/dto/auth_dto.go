package dto

import "github.com/spec-kit/coop-console/internal/domain"

// LoginRequest is the console login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// DemoLoginRequest is the offline role-switch form.
type DemoLoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SessionResponse mirrors the session view; role is null when absent.
type SessionResponse struct {
	IsLoggedIn bool    `json:"isLoggedIn"`
	Role       *string `json:"role"`
}

// LoginResponse tells the page where to go next.
type LoginResponse struct {
	Session  SessionResponse `json:"session"`
	Redirect string          `json:"redirect"`
}

// NewSessionResponse converts a domain session.
func NewSessionResponse(s domain.Session) SessionResponse {
	resp := SessionResponse{IsLoggedIn: s.IsLoggedIn}
	if s.HasRole() {
		role := string(s.Role)
		resp.Role = &role
	}
	return resp
}
