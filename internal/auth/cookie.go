package auth

import (
	"net/http"
	"time"
)

// Cookie names are a client contract; do not rename.
const (
	AccessCookieName  = "token"
	RefreshCookieName = "refreshToken"
)

// NewCookie builds an HttpOnly, SameSite=Lax, Path=/ cookie whose Max-Age matches ttl.
// Secure is set only when secure is true (production).
func NewCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionCookies returns the access and refresh cookies for p, in that order.
func SessionCookies(p TokenPair, secure bool) []*http.Cookie {
	return []*http.Cookie{
		NewCookie(AccessCookieName, p.AccessToken, p.AccessTTL, secure),
		NewCookie(RefreshCookieName, p.RefreshToken, p.RefreshTTL, secure),
	}
}

// ClearSessionCookies returns cookies that make the browser drop both session cookies.
func ClearSessionCookies(secure bool) []*http.Cookie {
	out := make([]*http.Cookie, 0, 2)
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		c := NewCookie(name, "", 0, secure)
		c.MaxAge = -1
		out = append(out, c)
	}
	return out
}
