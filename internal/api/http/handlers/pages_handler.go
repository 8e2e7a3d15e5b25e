package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-console/internal/api/dto"
	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/guard"
	"github.com/spec-kit/coop-console/internal/session"
)

// Page is one entry of a role's area.
type Page struct {
	Slug  string
	Title string
}

// RolePages lists the console area of each role. The first page is the role's home.
var RolePages = map[domain.Role][]Page{
	domain.RoleAdmin: {
		{Slug: "dashboard", Title: "Dashboard"},
		{Slug: "accounts", Title: "Accounts"},
		{Slug: "deposit-plans", Title: "Deposit plans"},
		{Slug: "loans", Title: "Loans"},
		{Slug: "recoveries", Title: "Recoveries"},
		{Slug: "commissions", Title: "Commissions"},
		{Slug: "payouts", Title: "Payouts"},
		{Slug: "members", Title: "Members"},
	},
	domain.RoleAgent: {
		{Slug: "dashboard", Title: "Dashboard"},
		{Slug: "members", Title: "My members"},
		{Slug: "collections", Title: "Collections"},
		{Slug: "commissions", Title: "Commissions"},
		{Slug: "referrals", Title: "Referrals"},
	},
	domain.RoleUser: {
		{Slug: "dashboard", Title: "Dashboard"},
		{Slug: "accounts", Title: "My accounts"},
		{Slug: "deposits", Title: "Deposits"},
		{Slug: "loans", Title: "My loans"},
	},
	domain.RoleBranch: {
		{Slug: "dashboard", Title: "Dashboard"},
		{Slug: "accounts", Title: "Branch accounts"},
	},
	domain.RoleAdvisor: {
		{Slug: "dashboard", Title: "Dashboard"},
		{Slug: "referrals", Title: "Referrals"},
	},
}

// PagesHandler renders page descriptors for every console area.
type PagesHandler struct {
	sessions *session.Factory
}

// NewPagesHandler constructs handler.
func NewPagesHandler(sessions *session.Factory) *PagesHandler {
	return &PagesHandler{sessions: sessions}
}

// Landing handles GET /.
func (h *PagesHandler) Landing(c *fiber.Ctx) error {
	current, _ := guard.SessionFromContext(c)
	data := map[string]any{"login": "/login", "register": "/register"}
	if current.HasRole() {
		data["home"] = current.Role.HomeRoute()
	}
	return c.JSON(dto.PageResponse{
		Page:    "landing",
		Title:   "Cooperative society",
		Session: dto.NewSessionResponse(current),
		Data:    data,
	})
}

// Register handles GET /register; ?ref= carries the referring agent's code.
func (h *PagesHandler) Register(c *fiber.Ctx) error {
	current, _ := guard.SessionFromContext(c)
	data := map[string]any{}
	if ref := strings.TrimSpace(c.Query("ref")); ref != "" {
		data["referralCode"] = ref
	}
	return c.JSON(dto.PageResponse{
		Page:    "register",
		Title:   "Member registration",
		Session: dto.NewSessionResponse(current),
		Data:    data,
	})
}

// Page returns the handler for one page of role's area.
func (h *PagesHandler) Page(role domain.Role, page Page) fiber.Handler {
	nav := navFor(role)
	name := strings.ToLower(string(role)) + "." + page.Slug

	return func(c *fiber.Ctx) error {
		current, _ := guard.SessionFromContext(c)
		resp := dto.PageResponse{
			Page:    name,
			Title:   page.Title,
			Session: dto.NewSessionResponse(current),
			Nav:     nav,
		}

		if cid, ok := auth.ClientIDFromContext(c); ok {
			tokens := h.sessions.Tokens(cid)
			if identity, ok := tokens.DecodeIdentity(c.UserContext()); ok {
				resp.Data = map[string]any{"subjectId": identity.SubjectID}
				if identity.MemberReference != "" {
					resp.Data["memberReference"] = identity.MemberReference
				}
			}
		}
		return c.JSON(resp)
	}
}

func navFor(role domain.Role) []dto.NavItem {
	pages := RolePages[role]
	base := "/" + strings.ToLower(string(role))
	nav := make([]dto.NavItem, 0, len(pages))
	for _, p := range pages {
		nav = append(nav, dto.NavItem{Label: p.Title, Path: base + "/" + p.Slug})
	}
	return nav
}
