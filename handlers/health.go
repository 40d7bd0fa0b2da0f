package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports store and Redis reachability. A degraded service still answers 200.
func (h *HandlerBundle) Health(c *gin.Context) {
	if h.Monitor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	snap := h.Monitor.Snapshot()
	status := "ok"
	if !snap.Store || !snap.Redis {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"store":     snap.Store,
		"redis":     snap.Redis,
		"checkedAt": snap.CheckedAt,
	})
}
