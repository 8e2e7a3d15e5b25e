package domain

import "strings"

// Role is a role tag carried by a credential or the demo fallback key.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
	RoleUser  Role = "USER"

	// Demo-only roles issued by the offline login path.
	RoleBranch  Role = "BRANCH"
	RoleAdvisor Role = "ADVISOR"
)

// KnownRoles lists every role tag the console routes for.
var KnownRoles = []Role{RoleAdmin, RoleAgent, RoleUser, RoleBranch, RoleAdvisor}

// IsZero reports whether the role is absent.
func (r Role) IsZero() bool {
	return r == ""
}

// HomeRoute returns the dashboard path for the role.
// The tag is interpolated as-is; no validation happens here.
func (r Role) HomeRoute() string {
	return "/" + strings.ToLower(string(r)) + "/dashboard"
}

// In reports whether r is a member of allowed.
func (r Role) In(allowed []Role) bool {
	for _, candidate := range allowed {
		if candidate == r {
			return true
		}
	}
	return false
}
