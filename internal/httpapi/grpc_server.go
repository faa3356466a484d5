package httpapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes grpc.health.v1 with status mirrored from the
// readiness probe, for the service name and the overall server ("").
type HealthServer struct {
	*health.Server
	probe  ReadyProbe
	logger *slog.Logger
}

func NewHealthServer(probe ReadyProbe, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HealthServer{Server: health.NewServer(), probe: probe, logger: logger}
}

// Register attaches the health service to s.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.Server)
}

// Sync runs the readiness probe once and publishes the result.
func (h *HealthServer) Sync(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.probe.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.WarnContext(ctx, "readiness probe failed", slog.String("error", err.Error()))
	}
	h.SetServingStatus("", status)
	h.SetServingStatus(serviceName, status)
	return status
}

// Run syncs every interval until ctx is done, then marks everything as not serving.
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	h.Sync(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			h.Sync(ctx)
		}
	}
}
