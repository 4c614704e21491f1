// Package auth resolves opaque access tokens into portal actors and their
// roles. Tokens are signed JWTs; the rest of the service only sees the
// resolved Actor.
package auth

import "strings"

// Role is the permission scope a token grants
type Role string

const (
	// RoleContratista is the contractor side: edits, sends and resubmits statements
	RoleContratista Role = "contratista"

	// RoleMandante is the owner side: records approval decisions
	RoleMandante Role = "mandante"

	// RoleCC is a read-only copy recipient
	RoleCC Role = "cc"
)

// ParseRole normalizes a role string, reporting whether it is known
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleContratista:
		return RoleContratista, true
	case RoleMandante:
		return RoleMandante, true
	case RoleCC:
		return RoleCC, true
	default:
		return "", false
	}
}

// Actor is a resolved token holder. Rut is the holder's Chilean tax
// identifier when the issuer knows it; empty otherwise.
type Actor struct {
	Email string
	Name  string
	Rut   string
	Role  Role
}
