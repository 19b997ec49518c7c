// Log-viewing and health HTTP handlers.
//
// This file exposes the two observability read endpoints and the health
// probe:
//   - GET /logs/redis  (capped activity list, public, replica-read)
//   - GET /logs/kafka  (bounded poll of API-call events, session-gated)
//   - GET /health      (liveness plus dependency and instrumentation status)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aksdemo/go-msg-backend/internal/cache"
	"github.com/aksdemo/go-msg-backend/internal/utils"
)

// RedisLogs godoc
// @ID          redisLogs
// @Summary     Recent activity log
// @Description Returns the capped recent-activity list (max 100, newest
// @Description first) from the read replica. An empty list yields one
// @Description synthetic entry so a working-but-idle system is visible.
// @Tags        Logs
// @Produce     json
// @Success     200  {object}  handlers.Envelope  "Entries under data"
// @Failure     500  {object}  handlers.Envelope  "Cache unavailable"
// @Router      /logs/redis [get]
func (h *Handlers) RedisLogs(c *gin.Context) {
	if h.activity == nil {
		fail(c, http.StatusInternalServerError, "cache unavailable")
		return
	}
	entries, err := h.activity.RecentActivity(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(entries) == 0 {
		entries = []cache.ActivityEntry{{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Action:    "no_activity",
			Details:   "activity log is empty",
		}}
	}
	okData(c, entries)
}

// KafkaLogs godoc
// @ID          kafkaLogs
// @Summary     Recent API-call events
// @Description Performs one short bounded poll of the event topic (5-second
// @Description budget, up to 100 events) and returns the events sorted by
// @Description timestamp descending. Not a durable subscription.
// @Tags        Logs
// @Produce     json
// @Param       limit  query     int  false  "Max events (1-100)"
// @Success     200    {object}  handlers.Envelope  "Events under data"
// @Failure     401    {object}  handlers.Envelope  "No active session"
// @Failure     500    {object}  handlers.Envelope  "Broker unavailable"
// @Router      /logs/kafka [get]
func (h *Handlers) KafkaLogs(c *gin.Context) {
	if h.pollEvents == nil {
		fail(c, http.StatusInternalServerError, "event stream unavailable")
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	out, err := h.pollEvents(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	okData(c, out)
}

// Health godoc
// @ID          health
// @Summary     Liveness and dependency status
// @Description Always returns 200 while the process serves traffic; the body
// @Description reports per-dependency probe results and whether telemetry
// @Description bootstrap has completed.
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  map[string]any
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "disabled"
	if h.health.DB != nil {
		dbStatus = "ok"
		if err := h.health.DB(ctx); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}
	cacheStatus := "disabled"
	if h.health.Cache != nil {
		cacheStatus = "ok"
		if err := h.health.Cache(ctx); err != nil {
			cacheStatus = "error: " + err.Error()
		}
	}

	otel := gin.H{"enabled": h.health.OtelEnabled, "ready": false}
	if h.health.OtelReady != nil {
		otel["ready"] = h.health.OtelReady()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  dbStatus,
		"cache":     cacheStatus,
		"telemetry": otel,
	})
}
