package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/notify"
)

const heartbeatInterval = 30 * time.Second

// EventSource hands out event subscriptions; notify.Hub is the live one.
type EventSource interface {
	Subscribe() (<-chan notify.Event, func())
}

// Notifications streams published events to an admin client as server-sent
// events, with a heartbeat comment to keep idle proxies from closing it.
func Notifications(source EventSource, heartbeat time.Duration) gin.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = heartbeatInterval
	}
	return func(c *gin.Context) {
		const route = "GET /admin/api/notifications"
		defer handlePanic(c, route)

		events, cancel := source.Subscribe()
		defer cancel()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		routeLog(route).Info("notification stream opened")
		c.SSEvent("connected", gin.H{"message": "notification stream connected"})
		c.Writer.Flush()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case event, ok := <-events:
				if !ok {
					return false
				}
				c.SSEvent(event.Type, event)
				return true
			case <-ticker.C:
				c.SSEvent("heartbeat", gin.H{"time": time.Now().UTC()})
				return true
			}
		})
		routeLog(route).Info("notification stream closed", zap.String("client", c.ClientIP()))
	}
}
