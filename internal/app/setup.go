// Package app contains the application setup for the product API.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productapi/internal/auth"
	"github.com/abgdnv/productapi/internal/config"
	"github.com/abgdnv/productapi/internal/service"
	"github.com/abgdnv/productapi/internal/store"
	grpcImpl "github.com/abgdnv/productapi/internal/transport/grpc"
	"github.com/abgdnv/productapi/internal/transport/rest"
	"github.com/abgdnv/productapi/pkg/messaging"
	natsclient "github.com/abgdnv/productapi/pkg/nats"
	"github.com/abgdnv/productapi/pkg/resilience"
	"github.com/abgdnv/productapi/pkg/server"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

const serviceName = "product-api"

type Dependencies struct {
	Store          store.ProductStore
	ProductService service.ProductService
	Verifier       auth.Verifier
	Health         *grpcImpl.HealthReporter
	Logger         *slog.Logger
	// Registry backs the metrics endpoint. Nil disables it.
	Registry    *prometheus.Registry
	MetricsPath string
}

// SetupDependencies wires the store, service and credential verifier.
func SetupDependencies(cfg *config.Config, publisher messaging.Publisher, registry *prometheus.Registry, logger *slog.Logger) *Dependencies {
	var seed []store.Product
	if cfg.Store.Seed {
		seed = store.SampleCatalog()
	}
	repo := store.NewInMemoryStore(seed...)

	deps := &Dependencies{
		Store:          repo,
		ProductService: service.NewService(repo, publisher, logger),
		Verifier:       auth.NewAPIKeyVerifier(cfg.Auth),
		Health:         grpcImpl.NewHealthReporter(repo),
		Logger:         logger,
	}
	if cfg.Telemetry.Metrics.Enabled {
		deps.Registry = registry
		deps.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	return deps
}

// SetupPublisher connects to NATS when enabled and guards the publisher with a circuit breaker.
// The returned close function drains the connection.
func SetupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func() error, error) {
	if !cfg.NATS.Enabled {
		logger.Info("NATS publishing is disabled")
		return messaging.NopPublisher{}, func() error { return nil }, nil
	}
	nc, err := natsclient.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if err := natsclient.EnsureProductStream(ctx, js, cfg.NATS.Stream); err != nil {
		nc.Close()
		return nil, nil, err
	}
	breaker := resilience.NewCircuitBreaker("nats-publisher", cfg.Resilience.CircuitBreaker, logger)
	publisher := resilience.NewBreakerPublisher(natsclient.NewNatsPublisher(js), breaker)
	logger.Info("NATS publisher ready", "url", cfg.NATS.Url, "stream", cfg.NATS.Stream)
	return publisher, nc.Drain, nil
}

// SetupHttpHandler builds the router with middleware, metrics and product routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) (http.Handler, error) {
	mux := server.NewChiRouter(deps.Logger)
	if deps.Registry != nil {
		metrics, err := web.NewHTTPMetrics(deps.Registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
		}
		mux.Use(metrics.Middleware)
		mux.Handle(deps.MetricsPath, promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}
	rest.NewHandler(deps.ProductService, deps.Verifier, deps.Logger).RegisterRoutes(mux)
	return otelhttp.NewHandler(mux, serviceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	), nil
}

// SetupHttpServer creates and configures an HTTP server for the product API.
func SetupHttpServer(handler http.Handler, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, handler)
}

// SetupGrpcServer creates the gRPC server carrying the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, deps.Health.Register)
}
