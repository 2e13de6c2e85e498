package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret    = errors.New("auth: signing secret is not configured")
	ErrInvalidTTL       = errors.New("auth: token ttl must be positive")
	ErrExpired          = errors.New("auth: token expired")
	ErrInvalidSignature = errors.New("auth: token signature invalid")
	ErrMalformed        = errors.New("auth: token malformed")
)

// Expect lists what Verify requires of a token besides a valid signature.
type Expect struct {
	Type     TokenType
	Issuer   string
	Audience string
}

// Issue signs claims with HS256. IssuedAt, ExpiresAt and a random ID are set from now and ttl;
// everything else is taken from claims as given.
func Issue(now time.Time, claims Claims, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}

	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses tokenString, checks its HS256 signature against secret and validates
// expiry, issued-at, issuer, audience and token type as of now.
//
// Errors are one of ErrExpired, ErrInvalidSignature or ErrMalformed (possibly wrapped
// with detail), or ErrMissingSecret on misconfiguration.
func Verify(tokenString string, secret []byte, want Expect, now time.Time) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if want.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(want.Issuer))
	}
	if want.Audience != "" {
		opts = append(opts, jwt.WithAudience(want.Audience))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if claims.TokenType != want.Type {
		return Claims{}, fmt.Errorf("%w: token_type mismatch", ErrMalformed)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: subject missing", ErrMalformed)
	}
	if want.Type == TokenTypeAccess && claims.Role == "" {
		return Claims{}, fmt.Errorf("%w: role missing in access token", ErrMalformed)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
