package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/algenord/portfolio-backend/internal/auth"
	"github.com/algenord/portfolio-backend/internal/users"
)

// Handler serves the admin-only user management routes. The gate guarantees
// every request that reaches these carries the ADMIN role.
type Handler struct {
	repo *users.Repo
}

func Register(rg *gin.RouterGroup, repo *users.Repo) {
	h := &Handler{repo: repo}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

type createUserReq struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type userResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Roles: u.Roles}
}

func (h *Handler) create(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "username and password are required"})
		return
	}
	if len(req.Roles) == 0 {
		req.Roles = []string{auth.RoleAdmin}
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not create user"})
		return
	}

	u, err := h.repo.Create(c.Request.Context(), strings.TrimSpace(req.Username), req.Email, hash, req.Roles)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not create user"})
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(u))
}

func (h *Handler) list(c *gin.Context) {
	all, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not list users"})
		return
	}

	out := make([]userResponse, 0, len(all))
	for i := range all {
		out = append(out, toUserResponse(&all[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	u, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

type updateUserReq struct {
	Username *string  `json:"username"`
	Email    *string  `json:"email"`
	Password *string  `json:"password"`
	Roles    []string `json:"roles"`
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	params := users.UpdateParams{Username: req.Username, Email: req.Email, Roles: req.Roles}
	if req.Password != nil {
		hash, err := users.HashPassword(*req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not update user"})
			return
		}
		params.PasswordHash = &hash
	}

	u, err := h.repo.Update(c.Request.Context(), id, params)
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not delete user"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid user id"})
		return 0, false
	}
	return id, true
}

func writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
	case errors.Is(err, users.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "username already taken"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
