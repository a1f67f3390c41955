package auth

import (
	"net/http"
	"strings"
)

// RoleAdmin is the single privileged role. Everything mutating requires it.
const RoleAdmin = "ADMIN"

// RoleAnyAuthenticated matches any request that carries a valid principal,
// regardless of roles. Used by the wildcard default rule.
const RoleAnyAuthenticated = "*"

// Rule maps (method, path prefix) to a required role. An empty Method matches
// every method. An empty Role means the route is public.
type Rule struct {
	Method string
	Prefix string
	Role   string
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if path == strings.TrimSuffix(r.Prefix, "/") {
		return true
	}
	return strings.HasPrefix(path, r.Prefix) &&
		(strings.HasSuffix(r.Prefix, "/") || len(path) == len(r.Prefix) || path[len(r.Prefix)] == '/')
}

// DefaultPolicy is the whole authorization table, evaluated first-match. Kept
// as one ordered list so the policy is auditable in a single place.
func DefaultPolicy() []Rule {
	return []Rule{
		{Method: http.MethodPost, Prefix: "/login"},
		{Method: http.MethodGet, Prefix: "/health"},
		{Method: http.MethodGet, Prefix: "/healthz"},
		{Method: http.MethodGet, Prefix: "/uploads/"},
		{Method: http.MethodGet, Prefix: "/api/projects"},
		{Prefix: "/api/projects", Role: RoleAdmin},
		{Prefix: "/api/users", Role: RoleAdmin},
		{Prefix: "/", Role: RoleAnyAuthenticated},
	}
}

// requiredRole returns the role demanded by the first matching rule, and
// whether any rule matched at all.
func requiredRole(rules []Rule, method, path string) (string, bool) {
	for _, r := range rules {
		if r.matches(method, path) {
			return r.Role, true
		}
	}
	return "", false
}
