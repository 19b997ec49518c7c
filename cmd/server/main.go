package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aksdemo/go-msg-backend/internal/cache"
	"github.com/aksdemo/go-msg-backend/internal/config"
	"github.com/aksdemo/go-msg-backend/internal/events"
	httpapi "github.com/aksdemo/go-msg-backend/internal/http"
	"github.com/aksdemo/go-msg-backend/internal/observability"
	"github.com/aksdemo/go-msg-backend/internal/repo"
	"github.com/aksdemo/go-msg-backend/internal/sysutil"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title       Messaging Demo Backend API
// @version     1.0
// @description Session-based messaging demo backend with Redis activity logging and Kafka API-call events.
// @BasePath    /
func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	sysutil.EchoEnv(map[string]string{
		"PORT":              cfg.Port,
		"GIN_MODE":          cfg.GinMode,
		"LOG_LEVEL":         cfg.LogLevel,
		"MARIADB_HOST":      cfg.DB.Host,
		"MARIADB_USER":      cfg.DB.User,
		"MARIADB_PASSWORD":  cfg.DB.Password,
		"MARIADB_DATABASE":  cfg.DB.Name,
		"REDIS_ADDR":        cfg.Redis.Addr,
		"REDIS_REPLICA":     cfg.Redis.ReplicaAddr,
		"REDIS_PASSWORD":    cfg.Redis.Password,
		"KAFKA_SERVERS":     strings.Join(cfg.Kafka.Brokers, ","),
		"KAFKA_TOPIC":       cfg.Kafka.Topic,
		"KAFKA_USERNAME":    cfg.Kafka.Username,
		"KAFKA_PASSWORD":    cfg.Kafka.Password,
		"SESSION_SECRET":    cfg.Session.Secret,
		"OTEL_ENABLED":      boolStr(cfg.OTEL.Enabled),
		"OTEL_ENDPOINT":     cfg.OTEL.Endpoint,
		"OTEL_SERVICE_NAME": cfg.OTEL.ServiceName,
	})

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if n, err := repo.CountMessages(ctx, db); err != nil {
			log.Warn().Err(err).Msg("message count unavailable")
		} else {
			log.Info().Int64("messages", n).Msg("database ready")
		}
		cancel()
	}

	store := cache.New(cfg.Redis)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := store.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, activity log and session mirror degraded")
		}
		cancel()
	}

	emitter := events.NewKafkaEmitter(cfg.Kafka)

	// Telemetry bootstraps in the background after a short delay so a slow
	// or absent collector never delays serving traffic.
	otel := observability.StartDeferred(cfg.OTEL, version)

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Cache:     store,
		Emitter:   emitter,
		OtelReady: otel.Ready,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if err := emitter.Close(ctx); err != nil {
		log.Error().Err(err).Msg("event emitter shutdown")
	}
	if err := otel.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown")
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("server exited")
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
