package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 3 * time.Second

// Health reports 503 when check fails. A nil check always reports healthy.
func Health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /healthz"
		defer handlePanic(c, route)

		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				routeLog(route).Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "database unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
