package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/workoutbrothers/storefront-backend/pkg/enums"
)

// Identity is what a verified bearer token tells us about the caller.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
	Role     enums.UserRole
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (c AccessTokenClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username, Email: c.Email, Role: c.Role}
}
