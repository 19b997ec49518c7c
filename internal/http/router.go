// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, access logging with secret redaction, panic
// recovery, metrics, cookie sessions, rate limiting, CORS, and security
// headers.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate the correlation id
//  3. AccessLogger: structured logs with secret scrubbing
//  4. Recovery: capture panics after the logger
//  5. Body size limiter
//  6. Metrics
//  7. Cookie sessions (the session gate reads these)
//  8. Rate limiter (per user/IP)
//  9. CORS, gzip, and security headers
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/aksdemo/go-msg-backend/docs" // generated swagger spec
	"github.com/aksdemo/go-msg-backend/internal/cache"
	"github.com/aksdemo/go-msg-backend/internal/config"
	"github.com/aksdemo/go-msg-backend/internal/events"
	"github.com/aksdemo/go-msg-backend/internal/http/handlers"
	"github.com/aksdemo/go-msg-backend/internal/http/middleware"
	"github.com/aksdemo/go-msg-backend/internal/services"
	"github.com/aksdemo/go-msg-backend/internal/utils"
)

// Deps carries the shared infrastructure injected into the router.
type Deps struct {
	DB      *gorm.DB
	Cache   *cache.Cache
	Emitter *events.Emitter

	// OtelReady reports whether the delayed telemetry bootstrap has
	// completed; nil means telemetry is disabled.
	OtelReady func() bool
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), sessions and the session gate,
// rate limiting, CORS and security headers, health/metrics/swagger, and the
// public API surface.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging with secret scrubbing
	r.Use(middleware.AccessLogger(middleware.AccessOptions{}))

	// 4) Panic recovery to the JSON 500 envelope
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Cookie-backed sessions; the mirror in Redis is advisory only
	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cfg.Session.Name, store))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture; credentials are required for the session cookie, so
	// a wildcard origin is only used when no allowlist is configured (and
	// then without credentials, which suits tests and health checks).
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Compression and security headers
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services ← repo/db/cache/queue. Typed nils must
	// not leak into the service interfaces.
	var (
		mirror   services.SessionMirror
		activity services.ActivityLogger
		emitter  services.EventEmitter
		reader   handlers.ActivityReader
	)
	if deps.Cache != nil {
		mirror = deps.Cache
		activity = deps.Cache
		reader = deps.Cache
	}
	if deps.Emitter != nil {
		emitter = deps.Emitter
	}
	authSvc := services.NewAuthService(deps.DB, mirror)
	msgSvc := services.NewMessageService(deps.DB, activity, emitter)

	pollEvents := func(ctx context.Context, limit int) ([]events.Event, error) {
		kcfg := cfg.Kafka
		if limit > 0 {
			kcfg.PollMax = utils.ClampInt(limit, 1, kcfg.PollMax)
		}
		return events.FetchRecent(ctx, kcfg)
	}

	h := handlers.New(authSvc, msgSvc, reader, pollEvents, handlers.HealthDeps{
		DB:          pingDB(deps.DB),
		Cache:       pingCache(deps.Cache),
		OtelEnabled: cfg.OTEL.Enabled,
		OtelReady:   deps.OtelReady,
	})

	// Ops
	r.GET("/health", h.Health)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API. Logout is ungated: it clears whatever session the
	// request carries and reports success either way.
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/logs/redis", h.RedisLogs)

	// Session-gated API
	auth := r.Group("", middleware.RequireSession())
	{
		auth.POST("/messages", h.SaveMessage)
		auth.GET("/messages", h.ListMessages)
		auth.GET("/messages/search", h.SearchMessages)
		auth.GET("/messages/user/:username", h.UserMessages)

		// Legacy first-iteration surface
		auth.POST("/db/message", h.SaveLegacyMessage)
		auth.GET("/db/messages", h.ListLegacyMessages)

		auth.GET("/logs/kafka", h.KafkaLogs)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on downstream reads.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// pingDB adapts the GORM handle to a health probe; nil-safe.
func pingDB(db *gorm.DB) func(ctx context.Context) error {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// pingCache adapts the cache to a health probe; nil-safe.
func pingCache(c *cache.Cache) func(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.Ping
}
