// Package identity defines the authenticated representation of a user in the core.
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role constants for identities.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Identity is the durable, authenticated representation of a user: its id,
// role, and live suspension flag. It is fetched fresh from the store on every
// authorization check, never cached across requests.
type Identity struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Suspended bool   `json:"suspended"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, RoleAdmin)
}

// ValidateID checks that id is a well-formed identity reference (UUID).
func ValidateID(id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}
	return nil
}

// NormalizeRole lowercases and validates a role value.
func NormalizeRole(raw string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(raw))
	if role == "" {
		return RoleMember, nil
	}
	if role != RoleMember && role != RoleAdmin {
		return "", fmt.Errorf("invalid role: %s", raw)
	}
	return role, nil
}
