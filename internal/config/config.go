// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, MariaDB/SQLite persistence, Redis cache, Kafka event streaming,
// session handling, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DBConfig selects and parameterizes the persistence backend.
//
// When Host is set the service connects to MariaDB/MySQL over TCP using the
// remaining fields; otherwise it falls back to a local SQLite file at Path
// (development and tests).
type DBConfig struct {
	Host           string        // MARIADB_HOST; empty selects SQLite
	Port           string        // MARIADB_PORT
	User           string        // MARIADB_USER
	Password       string        // MARIADB_PASSWORD
	Name           string        // MARIADB_DATABASE
	ConnectTimeout time.Duration // MARIADB_CONNECT_TIMEOUT
	Path           string        // DB_PATH (SQLite fallback)

	// Pool settings applied to the underlying sql.DB regardless of driver.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// Tracing registers the GORM OpenTelemetry plugin so queries show up
	// as spans. Mirrors OTEL_ENABLED; never set independently.
	Tracing bool
}

// RedisConfig holds connection settings for the cache. The service keeps two
// logical connections: a read-write primary and a read-preferred replica used
// by the activity log viewer. ReplicaAddr falls back to Addr when unset.
type RedisConfig struct {
	Addr        string // REDIS_HOST:REDIS_PORT
	ReplicaAddr string // REDIS_REPLICA_HOST:REDIS_PORT
	Password    string // REDIS_PASSWORD
	DB          int    // REDIS_DB
}

// KafkaConfig holds broker and credential settings for the API-call event
// stream. SASL/PLAIN is used when Username is non-empty.
type KafkaConfig struct {
	Brokers  []string // KAFKA_SERVERS (comma separated)
	Topic    string   // KAFKA_TOPIC
	GroupID  string   // KAFKA_GROUP_ID (log viewer consumer group)
	Username string   // KAFKA_USERNAME
	Password string   // KAFKA_PASSWORD

	// Emitter sizing (bounded queue + fixed worker pool).
	QueueSize    int           // KAFKA_QUEUE_SIZE
	Workers      int           // KAFKA_WORKERS
	WriteTimeout time.Duration // KAFKA_WRITE_TIMEOUT

	// Log viewer poll bounds.
	PollTimeout time.Duration // KAFKA_POLL_TIMEOUT
	PollMax     int           // KAFKA_POLL_MAX
}

// SessionConfig configures the cookie-backed session mechanism.
type SessionConfig struct {
	Secret string        // SESSION_SECRET
	Name   string        // SESSION_COOKIE_NAME
	TTL    time.Duration // SESSION_TTL; also the cache mirror expiry
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool          // OTEL_ENABLED
	Endpoint    string        // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "collector:4317")
	Insecure    bool          // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string        // OTEL_SERVICE_NAME
	SampleRatio float64       // OTEL_TRACES_SAMPLER_ARG in [0..1]
	StartDelay  time.Duration // OTEL_START_DELAY; bootstrap runs this long after listen
	BatchQueue  int           // OTEL_BSP_MAX_QUEUE_SIZE
	BatchSize   int           // OTEL_BSP_MAX_EXPORT_BATCH_SIZE
	BatchDelay  time.Duration // OTEL_BSP_SCHEDULE_DELAY
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	// Dependencies
	DB      DBConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Session SessionConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	redisHost := getenv("REDIS_HOST", "redis-master.default.svc.cluster.local")
	redisPort := getenv("REDIS_PORT", "6379")
	replicaHost := getenv("REDIS_REPLICA_HOST", "")
	if replicaHost == "" {
		replicaHost = redisHost
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		// Persistence
		DB: DBConfig{
			Host:            getenv("MARIADB_HOST", ""),
			Port:            getenv("MARIADB_PORT", "3306"),
			User:            getenv("MARIADB_USER", "testuser"),
			Password:        getenv("MARIADB_PASSWORD", ""),
			Name:            getenv("MARIADB_DATABASE", "testdb"),
			ConnectTimeout:  getdur("MARIADB_CONNECT_TIMEOUT", 30*time.Second),
			Path:            getenv("DB_PATH", "app.db"),
			MaxOpenConns:    getint("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getint("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime: getdur("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			ConnMaxLifetime: getdur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},

		// Cache
		Redis: RedisConfig{
			Addr:        redisHost + ":" + redisPort,
			ReplicaAddr: replicaHost + ":" + redisPort,
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          getint("REDIS_DB", 0),
		},

		// Event stream
		Kafka: KafkaConfig{
			Brokers:      splitCSV(getenv("KAFKA_SERVERS", "my-kafka:9092")),
			Topic:        getenv("KAFKA_TOPIC", "api-logs"),
			GroupID:      getenv("KAFKA_GROUP_ID", "api-logs-viewer"),
			Username:     getenv("KAFKA_USERNAME", ""),
			Password:     getenv("KAFKA_PASSWORD", ""),
			QueueSize:    getint("KAFKA_QUEUE_SIZE", 256),
			Workers:      getint("KAFKA_WORKERS", 4),
			WriteTimeout: getdur("KAFKA_WRITE_TIMEOUT", 10*time.Second),
			PollTimeout:  getdur("KAFKA_POLL_TIMEOUT", 5*time.Second),
			PollMax:      getint("KAFKA_POLL_MAX", 100),
		},

		// Sessions
		Session: SessionConfig{
			Secret: getenv("SESSION_SECRET", "your-secret-key-here"),
			Name:   getenv("SESSION_COOKIE_NAME", "msgsession"),
			TTL:    getdur("SESSION_TTL", time.Hour),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "aks-demo-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			StartDelay:  getdur("OTEL_START_DELAY", 3*time.Second),
			BatchQueue:  getint("OTEL_BSP_MAX_QUEUE_SIZE", 2048),
			BatchSize:   getint("OTEL_BSP_MAX_EXPORT_BATCH_SIZE", 512),
			BatchDelay:  getdur("OTEL_BSP_SCHEDULE_DELAY", 5*time.Second),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.DB.Tracing = cfg.OTEL.Enabled
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.DB.Host == "" && strings.TrimSpace(cfg.DB.Path) == "" {
		return cfg, errors.New("DB_PATH must not be empty when MARIADB_HOST is unset")
	}
	if cfg.DB.MaxOpenConns < 1 || cfg.DB.MaxIdleConns < 0 {
		return cfg, errors.New("DB pool sizes must be positive")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return cfg, errors.New("KAFKA_SERVERS must name at least one broker")
	}
	if cfg.Kafka.QueueSize < 1 || cfg.Kafka.Workers < 1 {
		return cfg, errors.New("KAFKA_QUEUE_SIZE and KAFKA_WORKERS must be >= 1")
	}
	if cfg.Kafka.PollMax < 1 || cfg.Kafka.PollTimeout <= 0 {
		return cfg, errors.New("KAFKA_POLL_MAX must be >= 1 and KAFKA_POLL_TIMEOUT > 0")
	}
	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return cfg, errors.New("SESSION_SECRET must not be empty")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	if cfg.OTEL.BatchQueue < 1 || cfg.OTEL.BatchSize < 1 || cfg.OTEL.BatchSize > cfg.OTEL.BatchQueue {
		return cfg, errors.New("OTEL batch size must be >= 1 and <= queue size")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
