package handlers

import (
	"io"
	"net/http"
	"time"

	"task-tracker/internal/events"
	"task-tracker/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventsHandler streams bus events to browsers as Server-Sent Events. The
// stream is unauthenticated and carries every event; clients filter
// notification:assigned on its userId.
type EventsHandler struct {
	hub       *events.Hub
	heartbeat time.Duration
	logger    logrus.FieldLogger
}

func NewEventsHandler(hub *events.Hub, heartbeat time.Duration, logger logrus.FieldLogger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &EventsHandler{
		hub:       hub,
		heartbeat: heartbeat,
		logger:    logging.OrDiscard(logger).WithField("handler", "events"),
	}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	if h.hub == nil || !h.hub.Started() {
		respondFailure(c, http.StatusServiceUnavailable, "Event stream unavailable", "")
		return
	}

	sub := h.hub.Subscribe()
	defer sub.Close()
	select {
	case <-sub.Done():
		// the hub closed after the check above
		respondFailure(c, http.StatusServiceUnavailable, "Event stream unavailable", "")
		return
	default:
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"heartbeatSeconds": int(h.heartbeat.Seconds())})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	done := c.Request.Context().Done()
	c.Stream(func(io.Writer) bool {
		select {
		case <-done:
			return false
		case <-sub.Done():
			return false
		case ev := <-sub.Events():
			c.SSEvent(ev.Name, ev.Data)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.Unix())
			return true
		}
	})
}
