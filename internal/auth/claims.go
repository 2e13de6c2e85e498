package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Identity is the claim set embedded in every access token.
// It is immutable once signed; a changed role needs a newly issued token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Claims are the only supported JWT claims shape for this service.
// The user id travels in the registered "sub" claim.
// Refresh tokens carry only sub, jti and the token type.
type Claims struct {
	jwt.RegisteredClaims

	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenType TokenType `json:"token_type"`
}

func (c Claims) Identity() Identity {
	return Identity{UserID: c.Subject, Email: c.Email, Role: c.Role}
}
