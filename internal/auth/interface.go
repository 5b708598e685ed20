package auth

import (
	"guidewell/internal/domain/models"
)

// TokenVerifier validates bearer tokens and extracts guidewell claims.
type TokenVerifier interface {
	// VerifyToken validates a JWT and returns its claims.
	// Returns domain.ErrUnauthorized for any invalid token.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases verifier resources.
	Close() error
}
