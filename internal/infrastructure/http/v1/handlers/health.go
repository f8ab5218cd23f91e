package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout bounds the storage ping of a readiness probe.
const readyTimeout = 2 * time.Second

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	storage Pinger
	driver  string
}

func NewHealthHandler(storage Pinger, driver string) *HealthHandler {
	return &HealthHandler{storage: storage, driver: driver}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready. It fails while storage is unreachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	started := time.Now()
	err := h.storage.Ping(ctx)
	check := gin.H{
		"driver":    h.driver,
		"latencyMs": time.Since(started).Milliseconds(),
	}

	if err != nil {
		check["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "storage": check})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": check})
}
