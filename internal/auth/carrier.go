package auth

import (
	"net/http"
	"strings"
)

const authorizationHeader = "Authorization"

// Carrier is the slice of an inbound request the auth layer reads.
// *gin.Context satisfies it directly; HTTPRequest adapts a plain *http.Request.
type Carrier interface {
	GetHeader(key string) string
	Cookie(name string) (string, error)
}

type HTTPRequest struct {
	R *http.Request
}

func (h HTTPRequest) GetHeader(key string) string { return h.R.Header.Get(key) }

func (h HTTPRequest) Cookie(name string) (string, error) {
	c, err := h.R.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// AccessTokenFrom returns the bearer token from the Authorization header, falling back to
// the access cookie. It returns "" when neither is present.
func AccessTokenFrom(c Carrier) string {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if scheme, tok, ok := strings.Cut(raw, " "); ok && strings.EqualFold(scheme, "Bearer") {
		if tok = strings.TrimSpace(tok); tok != "" {
			return tok
		}
	}
	if v, err := c.Cookie(AccessCookieName); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// RefreshTokenFrom returns the refresh cookie value or "".
func RefreshTokenFrom(c Carrier) string {
	v, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}
