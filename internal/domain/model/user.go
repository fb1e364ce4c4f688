package model

import (
	"time"
)

type Role string

const (
	RoleMinistry Role = "ministry"
	RoleCitizen  Role = "citizen"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the three known roles. Unknown values
// are rejected at the boundary, never stored.
func (r Role) Valid() bool {
	switch r {
	case RoleMinistry, RoleCitizen, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"` // Not exposed
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the request-scoped actor extracted from the JWT by the auth
// middleware and passed explicitly into every service operation.
type Identity struct {
	UserID string
	Role   Role
}
