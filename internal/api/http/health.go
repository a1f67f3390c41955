package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is the database surface the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers the public liveness routes with the service identity
// and a bounded database ping. The routes stay 200 either way; "ok" and "db"
// carry the verdict.
type HealthHandler struct {
	service string
	version string
	db      Pinger
}

func NewHealthHandler(service, version string, db Pinger) *HealthHandler {
	return &HealthHandler{service: service, version: version, db: db}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.check)
	r.GET("/healthz", h.check)
}

func (h *HealthHandler) check(c *gin.Context) {
	pctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	db := "up"
	healthy := true
	if err := h.db.Ping(pctx); err != nil {
		db = "down"
		healthy = false
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      healthy,
		"service": h.service,
		"version": h.version,
		"db":      db,
		"time":    time.Now().UTC(),
	})
}
