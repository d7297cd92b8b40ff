package security

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CookieOptions carries the attributes shared by every cookie the emulator issues.
type CookieOptions struct {
	Domain   string
	Secure   bool
	SameSite string
}

func sameSiteMode(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func CreateSessionCookie(opts CookieOptions, name, sessionID string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    sessionID,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: sameSiteMode(opts.SameSite),
	}
}

// CreateTokenCookie builds the script-readable CSRF cookie. The value is
// percent-encoded with a literal "+" left as is, matching decodeURIComponent.
func CreateTokenCookie(opts CookieOptions, name, token string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    url.PathEscape(token),
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: false,
		SameSite: sameSiteMode(opts.SameSite),
	}
}

func ClearCookie(opts CookieOptions, name string) *http.Cookie {
	cookie := CreateSessionCookie(opts, name, "", 0)
	cookie.MaxAge = -1
	return cookie
}

func GetSessionCookie(req *http.Request, cookieName string) (*http.Cookie, error) {
	return req.Cookie(cookieName)
}

// ReadToken looks up name in a raw cookie string such as "a=1; XSRF-TOKEN=abc%3D".
// The name match is case-insensitive and percent escapes are decoded; a literal
// "+" stays a "+". Empty values are reported as absent.
func ReadToken(raw, name string) (string, bool) {
	for _, part := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), name) {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"`)
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}

// CookieString renders cookies the way a browser exposes document.cookie.
func CookieString(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
