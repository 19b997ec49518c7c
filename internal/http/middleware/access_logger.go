// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements AccessLogger, the structured request/response logger.
// It scrubs obvious secrets before anything reaches the log stream:
//
//   - Never logs request or response bodies
//   - Masks sensitive headers (Authorization, Cookie, Set-Cookie, plus custom)
//   - Redacts password-like query parameters and UUID/email shapes from the
//     query string
//   - Attaches a request-scoped zerolog.Logger (see LoggerFrom) carrying the
//     correlation ID and request metadata
//
// Severity follows the response: INFO for 2xx/3xx, WARN for 4xx, ERROR for
// 5xx or when the Gin context collected errors.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// maxQueryLogLength caps the number of bytes of the raw query string logged.
const maxQueryLogLength = 2048

// AccessOptions configures additional scrub behavior for AccessLogger.
//
// MaskHeaders lists extra HTTP header names whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in
// sensitive headers (Authorization, Cookie, Set-Cookie).
type AccessOptions struct {
	MaskHeaders []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// password=... / pwd=... query parameter values.
	pwParamRE = regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token)=[^&\s]*`)
)

// redactText scrubs identifier and credential shapes from free-form text.
// Order matters: parameter values first so their contents never survive
// into the later patterns.
func redactText(s string) string {
	if s == "" {
		return s
	}
	out := pwParamRE.ReplaceAllString(s, "$1=[REDACTED]")
	out = uuidRE.ReplaceAllString(out, "[REDACTED:id]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	return out
}

// AccessLogger returns a Gin middleware that logs each request and response
// with secrets scrubbed, and stores a request-scoped logger in the context.
func AccessLogger(opts AccessOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := truncate(redactText(c.Request.URL.RawQuery), maxQueryLogLength)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redactText(strings.Join(vv, ", "))
		}

		rid, _ := c.Get(requestIDKey)

		// Request-scoped logger for handlers and services.
		l := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("query", safeQuery).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}

// truncate caps s at max bytes, appending an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
