package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Gate is the single authentication/authorization choke point. It runs before
// routing handlers: extracts a bearer token, attaches a Principal on success,
// then evaluates the policy table. Handlers reached on a protected route may
// assume the caller is authorized.
//
// A missing header, wrong scheme, or unparsable token all degrade to an
// anonymous request rather than an error, so public GET routes stay usable
// with a stale or broken token. Rejection is the policy check's job.
func Gate(codec *Codec, rules []Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if tokenString, ok := strings.CutPrefix(header, "Bearer "); ok {
				if claims, err := codec.Parse(tokenString); err == nil {
					SetPrincipal(c, Principal{Subject: claims.Subject, Roles: claims.Roles})
				}
			}
		}

		role, matched := requiredRole(rules, c.Request.Method, c.Request.URL.Path)
		if !matched || role == "" {
			c.Next()
			return
		}

		p, authenticated := PrincipalFrom(c)
		if !authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "authentication required"})
			return
		}
		if role != RoleAnyAuthenticated && !p.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "insufficient role"})
			return
		}

		c.Next()
	}
}
