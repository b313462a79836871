// Package grpc exposes the standard gRPC health service for the product API.
package grpc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/productapi/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "productapi.ProductAPI"

// HealthReporter publishes the serving status of the API over grpc.health.v1.
type HealthReporter struct {
	server *health.Server
	repo   store.ProductStore
}

func NewHealthReporter(repo store.ProductStore) *HealthReporter {
	h := &HealthReporter{server: health.NewServer(), repo: repo}
	h.setAll(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return h
}

// Register adds the health service to s.
func (h *HealthReporter) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.server)
}

// MarkReady switches to SERVING once the store answers.
func (h *HealthReporter) MarkReady(ctx context.Context) error {
	count, err := h.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("product store is not ready: %w", err)
	}
	slog.InfoContext(ctx, "product store ready", "products", count)
	h.setAll(grpc_health_v1.HealthCheckResponse_SERVING)
	return nil
}

// Shutdown reports NOT_SERVING and ignores any later status change.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}

func (h *HealthReporter) setAll(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}
