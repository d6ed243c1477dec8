package models

import (
	"errors"
	"strings"
	"time"
)

// Role represents which dashboard a user may reach.
type Role string

const (
	RoleDesigner Role = "designer"
	RoleClient   Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleDesigner || r == RoleClient
}

// ParseRole converts a string to Role. Unknown values yield an empty Role.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "designer":
		return RoleDesigner
	case "client":
		return RoleClient
	default:
		return ""
	}
}

// User is either a designer (password login) or a client (access-code login).
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	ClientCode   string    `json:"-"`
	DesignerID   int64     `json:"designer_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrCredentialShape is returned when a user row carries the wrong credential for its role.
var ErrCredentialShape = errors.New("user credential does not match role")

// NewDesigner creates a designer with an already hashed password.
func NewDesigner(name, email, passwordHash string) *User {
	return &User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		Role:         RoleDesigner,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewClient creates a client identified by an access code.
func NewClient(name, email, code string, designerID int64) *User {
	return &User{
		Name:       strings.TrimSpace(name),
		Email:      NormalizeEmail(email),
		Role:       RoleClient,
		ClientCode: code,
		DesignerID: designerID,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate checks that exactly one of password hash and client code is set,
// matching the role.
func (u *User) Validate() error {
	switch u.Role {
	case RoleDesigner:
		if u.PasswordHash == "" || u.ClientCode != "" {
			return ErrCredentialShape
		}
	case RoleClient:
		if u.ClientCode == "" || u.PasswordHash != "" {
			return ErrCredentialShape
		}
	default:
		return ErrCredentialShape
	}
	return nil
}

// IsDesigner returns true if the user logs in with a password.
func (u *User) IsDesigner() bool {
	return u.Role == RoleDesigner
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
