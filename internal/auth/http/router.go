package http

import (
	"github.com/gin-gonic/gin"

	"github.com/algenord/portfolio-backend/internal/auth"
)

// Register wires the login route. The route is public in the policy table;
// brute-force protection comes from the per-IP rate limit instead.
func Register(r gin.IRouter, codec *auth.Codec, store CredentialStore) {
	h := &Handler{
		codec:   codec,
		store:   store,
		limiter: newIPLimiter(loginRatePerSecond, loginBurst),
	}
	r.POST("/login", h.login)
}
