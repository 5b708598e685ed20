package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role values carried in the access token. Library mutations require
// practitioner or admin.
const (
	RoleMember       = "member"
	RolePractitioner = "practitioner"
	RoleAdmin        = "admin"
)

// AccessClaims are the JWT claims guidewell cares about.
// Subject is the user id.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// CanCurate reports whether the role may mutate the content library.
func CanCurate(role string) bool {
	return role == RolePractitioner || role == RoleAdmin
}
