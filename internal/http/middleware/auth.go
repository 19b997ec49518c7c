// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the session gate protecting the message endpoints.
// The authoritative session lives in the cookie-backed store installed on
// the router; the Redis mirror written at login is advisory only and is
// never consulted here.
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// SessionUserKey is the session key holding the logged-in username.
	SessionUserKey = "username"
	// SessionUserIDKey is the session key holding the numeric user id.
	SessionUserIDKey = "user_id"

	// ContextUserKey is the Gin context key the gate sets for handlers.
	ContextUserKey = "userID"
	// ContextUserDBKey is the Gin context key holding the numeric user id.
	ContextUserDBKey = "userDBID"
)

// RequireSession short-circuits with 401 and the standard error envelope
// when no logged-in user is present in the request's session. Otherwise it
// copies the identity into the Gin context and delegates unchanged.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		username, _ := sess.Get(SessionUserKey).(string)
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "login required",
			})
			return
		}
		c.Set(ContextUserKey, username)
		if id, ok := sess.Get(SessionUserIDKey).(uint); ok {
			c.Set(ContextUserDBKey, id)
		}
		c.Next()
	}
}

// SessionUser returns the authenticated username from the Gin context, or ""
// when the request did not pass through RequireSession.
func SessionUser(c *gin.Context) string {
	if v, ok := c.Get(ContextUserKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SessionUserID returns the authenticated user's database id, or 0.
func SessionUserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserDBKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
