package domain

// Client storage keys.
const (
	KeyToken    = "token"
	KeyUserRole = "userRole"
)

// ClientID identifies one browser's storage namespace.
type ClientID string

// Identity is the decoded content of a credential. It only exists when the
// credential decoded completely.
type Identity struct {
	SubjectID       string
	Role            Role
	MemberReference string
}

// Session is the derived authentication view for a client.
type Session struct {
	IsLoggedIn bool `json:"isLoggedIn"`
	Role       Role `json:"role"`
}

// HasRole reports whether a role is present on the session.
func (s Session) HasRole() bool {
	return !s.Role.IsZero()
}
