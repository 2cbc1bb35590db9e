package model

import (
	"github.com/google/uuid"
)

// Role is an explicit attribute on the authenticated identity. Authorization
// decisions check this claim, never an email comparison.
type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Staff reports whether the role belongs to clinic personnel.
func (r Role) Staff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Actor is the caller identity asserted by the auth middleware. Services
// check it defensively; the HTTP layer is the enforcement boundary.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}
