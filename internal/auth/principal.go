package auth

import "github.com/gin-gonic/gin"

// ctxPrincipal is the gin context key the gate stores the Principal under.
const ctxPrincipal = "principal"

// Principal is the authenticated identity attached to one request. It is a
// plain value scoped to the request; handlers read it explicitly instead of
// consulting ambient state.
type Principal struct {
	Subject string
	Roles   []string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(ctxPrincipal, p)
}

// PrincipalFrom returns the request's Principal, or false for anonymous
// requests.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
