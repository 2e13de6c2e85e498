// Package security holds request filtering middleware: payload heuristics, per-IP rate
// limiting and response hardening headers.
package security

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"sprintlite/internal/apierr"
	"sprintlite/pkg/logger"
)

// MaxBodyBytes bounds JSON bodies read by Sanitize.
const MaxBodyBytes = 1 << 20

const (
	ThreatXSS = "xss"
	ThreatSQL = "sqli"
)

var (
	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script\b`),
		regexp.MustCompile(`(?i)<\s*/\s*script\s*>`),
		regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg|img)\b[^>]*>`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\bon(error|load|click|mouseover|focus)\s*=`),
	}
	sqlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bunion\b\s+(all\s+)?\bselect\b`),
		regexp.MustCompile(`(?i)'\s*or\s+'?\d+'?\s*=\s*'?\d+`),
		regexp.MustCompile(`(?i);\s*(drop|delete|truncate|alter|insert|update)\s`),
		regexp.MustCompile(`(?i)\b(drop|truncate)\s+table\b`),
		regexp.MustCompile(`(?i)'\s*;?\s*--`),
		regexp.MustCompile(`(?i)\b(sleep|pg_sleep|benchmark)\s*\(`),
	}
)

// Detect returns ThreatXSS, ThreatSQL or "" for s.
func Detect(s string) string {
	for _, re := range xssPatterns {
		if re.MatchString(s) {
			return ThreatXSS
		}
	}
	for _, re := range sqlPatterns {
		if re.MatchString(s) {
			return ThreatSQL
		}
	}
	return ""
}

// skipField reports whether a field is exempt from inspection. Passwords are opaque.
func skipField(name string) bool {
	return strings.Contains(strings.ToLower(name), "password")
}

// Sanitize rejects requests whose query values or JSON string fields match the XSS or SQL
// injection heuristics. Offending fields are listed in the error details. The body is
// restored for downstream handlers.
func Sanitize() gin.HandlerFunc {
	return func(c *gin.Context) {
		findings := map[string]string{}

		for key, vals := range c.Request.URL.Query() {
			if skipField(key) {
				continue
			}
			for _, v := range vals {
				if t := Detect(v); t != "" {
					findings[key] = t
				}
			}
		}

		if hasJSONBody(c.Request) {
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
			if err != nil {
				apierr.Abort(c, apierr.Validation("Unreadable request body", nil))
				return
			}
			if len(body) > MaxBodyBytes {
				apierr.Abort(c, apierr.Validation("Request body too large", nil))
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			var doc any
			if len(bytes.TrimSpace(body)) > 0 {
				if err := json.Unmarshal(body, &doc); err != nil {
					apierr.Abort(c, apierr.Validation("Malformed JSON body", nil))
					return
				}
				walk("", doc, findings)
			}
		}

		if len(findings) > 0 {
			fields := make([]string, 0, len(findings))
			for f := range findings {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			logger.FromGin(c).Warn("request rejected by content filter", "fields", fields)
			apierr.Abort(c, apierr.Validation("Request contains potentially unsafe content", findings))
			return
		}
		c.Next()
	}
}

func hasJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return r.Body != nil && strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

func walk(path string, v any, findings map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if skipField(k) {
				continue
			}
			walk(join(path, k), child, findings)
		}
	case []any:
		for _, child := range t {
			walk(path, child, findings)
		}
	case string:
		if threat := Detect(t); threat != "" {
			findings[path] = threat
		}
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
