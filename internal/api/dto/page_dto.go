package dto

// PageResponse describes a rendered console page. The presentation shell
// fills the tables from the backend API using Data as its query context.
type PageResponse struct {
	Page    string          `json:"page"`
	Title   string          `json:"title"`
	Session SessionResponse `json:"session"`
	Nav     []NavItem       `json:"nav,omitempty"`
	Data    map[string]any  `json:"data,omitempty"`
}

// NavItem is one entry of a role's side navigation.
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}
