package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/algenord/portfolio-backend/internal/auth"
	"github.com/algenord/portfolio-backend/internal/users"
)

// CredentialStore looks up the account a login attempt names.
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*users.User, error)
}

type Handler struct {
	codec   *auth.Codec
	store   CredentialStore
	limiter *ipLimiter
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	if !h.limiter.allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many login attempts"})
		return
	}

	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "username and password are required"})
		return
	}

	u, err := h.store.GetByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if !errors.Is(err, users.ErrUserNotFound) {
			log.Printf("[auth] user lookup failed: %v", err)
		}
		// same answer for unknown user and wrong password
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid credentials"})
		return
	}
	if !u.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid credentials"})
		return
	}

	token, err := h.codec.Issue(u.Username, u.Roles)
	if err != nil {
		log.Printf("[auth] token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token})
}
