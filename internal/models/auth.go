package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string     `json:"user_id"`
	ChurchID string     `json:"church_id"`
	Role     MemberRole `json:"role"`
	Email    string     `json:"email,omitempty"`
	FullName string     `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
