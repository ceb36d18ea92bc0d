package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lead-intake/internal/common/database"
)

type HealthHandler struct {
	deps    []database.Pinger
	version string
}

// NewHealthHandler takes the dependencies readiness depends on. Pass only the
// ones actually configured.
func NewHealthHandler(version string, deps ...database.Pinger) *HealthHandler {
	return &HealthHandler{deps: deps, version: version}
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	results, ok := database.PingAll(ctx, h.deps...)
	status := http.StatusOK
	state := "ready"
	if !ok {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "dependencies": results})
}
