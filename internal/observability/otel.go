// Package observability configures OpenTelemetry tracing toward an OTLP
// collector. Setup is deliberately deferred: the Handle starts the exporter
// on a background timer after the HTTP listener is already serving, so
// instrumentation bootstrap can never delay request handling. Export is
// batched with bounded queue and batch sizes so telemetry overhead cannot
// grow without limit; collector failures are logged and ignored.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/aksdemo/go-msg-backend/internal/config"
)

// ---- TEST SEAMS (signatures exactly match what tests will assign) ----
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// ---------------------------------------------------------------------

// Setup configures OpenTelemetry tracing and returns a shutdown function.
// With cfg.Enabled false it returns a no-op shutdown.
func Setup(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	// Build OTLP gRPC client options
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		creds := credentials.NewClientTLSFromCert(nil, "")
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}

	// Exporter via seam
	client := newOTLPClient(opts...)
	exp, err := newOTLPExporterFn(ctx, client)
	if err != nil {
		return nil, err
	}

	// Resource via seam
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	// Tracer provider with bounded batching
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp,
			sdktrace.WithMaxQueueSize(cfg.BatchQueue),
			sdktrace.WithMaxExportBatchSize(cfg.BatchSize),
			sdktrace.WithBatchTimeout(cfg.BatchDelay),
		),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	// Globals
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Handle owns the process-wide telemetry lifecycle: one deferred bootstrap,
// one explicit shutdown/flush. It is passed by reference to the code that
// needs the status; nothing else reaches for ambient globals.
type Handle struct {
	cfg     config.OTELConfig
	version string

	mu       sync.Mutex
	shutdown func(context.Context) error
	timer    *time.Timer
	ready    atomic.Bool
}

// StartDeferred schedules telemetry bootstrap cfg.StartDelay after the call,
// returning immediately. The returned Handle reports readiness and performs
// shutdown. With telemetry disabled the Handle is inert.
func StartDeferred(cfg config.OTELConfig, version string) *Handle {
	h := &Handle{cfg: cfg, version: version}
	if !cfg.Enabled {
		return h
	}
	h.timer = time.AfterFunc(cfg.StartDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		shutdown, err := Setup(ctx, cfg, version)
		if err != nil {
			log.Error().Err(err).Str("endpoint", cfg.Endpoint).Msg("telemetry bootstrap failed")
			return
		}
		h.mu.Lock()
		h.shutdown = shutdown
		h.mu.Unlock()
		h.ready.Store(true)
		log.Info().Str("endpoint", cfg.Endpoint).Msg("telemetry started")
	})
	return h
}

// Ready reports whether the deferred bootstrap has completed successfully.
func (h *Handle) Ready() bool { return h.ready.Load() }

// Shutdown cancels a pending bootstrap and flushes the tracer provider if it
// was started. Safe to call regardless of state.
func (h *Handle) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.shutdown == nil {
		return nil
	}
	h.ready.Store(false)
	return h.shutdown(ctx)
}
