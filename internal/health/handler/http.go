package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/policy/engine"
)

const readinessTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness probes for Kubernetes and load balancers.
type HealthHandler struct {
	db        *sql.DB
	evaluator engine.Evaluator
}

// NewHealthHandler returns a health handler. db and evaluator may be nil; the
// corresponding readiness checks are then skipped.
func NewHealthHandler(db *sql.DB, evaluator engine.Evaluator) *HealthHandler {
	return &HealthHandler{db: db, evaluator: evaluator}
}

// Register registers the probe routes on the engine (outside the API groups).
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.live)
	r.GET("/readyz", h.ready)
}

func (h *HealthHandler) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
	}
	if h.evaluator != nil {
		if err := h.evaluator.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "policy_engine"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
