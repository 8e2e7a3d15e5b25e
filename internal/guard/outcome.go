package guard

import "github.com/spec-kit/coop-console/internal/domain"

// Kind is the result class of one guard evaluation.
type Kind string

const (
	Render             Kind = "render"
	RedirectToRoot     Kind = "redirect_root"
	RedirectToRoleHome Kind = "redirect_role_home"
)

// RootPath is where unauthenticated visitors of restricted routes land.
const RootPath = "/"

// Outcome is exactly one of render or a redirect to Target.
type Outcome struct {
	Kind   Kind
	Target string
}

// Allowed reports whether the protected subtree renders.
func (o Outcome) Allowed() bool {
	return o.Kind == Render
}

// EvaluateRoleRestricted admits sessions whose role is in allowed.
// No role redirects to the root; a role outside allowed goes to its own home.
func EvaluateRoleRestricted(session domain.Session, allowed []domain.Role) Outcome {
	if !session.HasRole() {
		return Outcome{Kind: RedirectToRoot, Target: RootPath}
	}
	if !session.Role.In(allowed) {
		return Outcome{Kind: RedirectToRoleHome, Target: session.Role.HomeRoute()}
	}
	return Outcome{Kind: Render}
}

// EvaluatePublicOnly sends any session with a role to its home.
func EvaluatePublicOnly(session domain.Session) Outcome {
	if session.HasRole() {
		return Outcome{Kind: RedirectToRoleHome, Target: session.Role.HomeRoute()}
	}
	return Outcome{Kind: Render}
}
