package server

import "strings"

// OriginAllowed reports whether origin matches one of the allowed patterns.
// A pattern may contain a single "*" wildcard (e.g. https://*.vercel.app) to
// admit preview subdomains on the same provider. An empty origin is allowed:
// non-browser clients send none.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, pattern := range allowed {
		if pattern == origin {
			return true
		}
		star := strings.Index(pattern, "*")
		if star < 0 {
			continue
		}
		prefix, suffix := pattern[:star], pattern[star+1:]
		if len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}
