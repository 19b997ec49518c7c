// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the uniform response envelope used by every endpoint:
// successes are {"status":"success", ...} with payloads under "data", and
// failures are {"status":"error","message":...} with 400 for validation,
// 401 for authentication, and 500 for dependency failures. fail()
// centralizes error formatting and logs server-side errors with the
// request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aksdemo/go-msg-backend/internal/http/middleware"
)

// Envelope is the standard response wrapper returned by all endpoints.
type Envelope struct {
	// Status is "success" or "error".
	Status string `json:"status" example:"success"`
	// Message is a human-readable outcome description, when there is one.
	Message string `json:"message,omitempty" example:"registration complete"`
	// Data carries the payload of list/read endpoints.
	Data any `json:"data,omitempty"`
	// Username is echoed by the login endpoint.
	Username string `json:"username,omitempty" example:"alice"`
}

// fail aborts the request with the standard error envelope. Server errors
// (>= 500) are logged with the request-scoped logger before responding.
func fail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, Envelope{Status: "error", Message: msg})
}

// Fail is the exported variant of fail(), used by router fallbacks.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

// okMsg writes a success envelope carrying only a message.
func okMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Message: msg})
}

// okData writes a success envelope carrying a payload.
func okData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Data: data})
}
