package auth

import "strings"

// RouteGuard decides which application paths need an authenticated session.
type RouteGuard struct {
	Login    string
	Prefixes []string
}

func NewRouteGuard(login string, prefixes []string) RouteGuard {
	return RouteGuard{Login: login, Prefixes: append([]string(nil), prefixes...)}
}

// Protected reports whether path falls under one of the prefixes on a segment
// boundary ("/wallet" covers "/wallet" and "/wallet/x", not "/wallets"). The
// login route itself is never protected.
func (g RouteGuard) Protected(path string) bool {
	if path == "" {
		return false
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if g.IsLogin(path) {
		return false
	}

	for _, prefix := range g.Prefixes {
		prefix = strings.TrimRight(prefix, "/")
		if prefix == "" {
			return true
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (g RouteGuard) IsLogin(path string) bool {
	return strings.TrimRight(path, "/") == strings.TrimRight(g.Login, "/")
}
