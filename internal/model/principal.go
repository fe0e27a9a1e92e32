package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFinance Role = "finance"
	RoleViewer  Role = "viewer"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// CanGenerate reports whether the caller may trigger invoice generation.
// Viewers can read invoices and logs but never create them.
func (p Principal) CanGenerate() bool {
	return p.Role == RoleAdmin || p.Role == RoleFinance
}
