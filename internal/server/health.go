package server

import (
	"context"
	"net"
	"time"

	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name reported alongside the overall ("") status.
const HealthService = "tablewire.Gateway"

const (
	healthInterval = 15 * time.Second
	pingTimeout    = 5 * time.Second
)

// Pinger checks that the backend accepts connections.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves grpc.health.v1.Health. With a Pinger the status follows the
// backend: SERVING while pings succeed, NOT_SERVING otherwise.
type Health struct {
	status   *health.Server
	grpc     *grpc.Server
	pinger   Pinger
	logger   *pterm.Logger
	interval time.Duration
}

// NewHealth creates the health service. pinger may be nil, in which case the
// gateway always reports SERVING.
func NewHealth(pinger Pinger, logger *pterm.Logger) *Health {
	h := &Health{
		status:   health.NewServer(),
		grpc:     grpc.NewServer(),
		pinger:   pinger,
		logger:   logger,
		interval: healthInterval,
	}
	healthpb.RegisterHealthServer(h.grpc, h.status)
	if pinger == nil {
		h.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.status.SetServingStatus("", st)
	h.status.SetServingStatus(HealthService, st)
}

// Check pings the backend once and updates the reported status.
func (h *Health) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	if h.pinger == nil {
		return healthpb.HealthCheckResponse_SERVING
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := h.pinger.Ping(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("backend ping failed", h.logger.Args("error", err.Error()))
	}
	h.set(st)
	return st
}

// Serve answers health checks on ln until ctx is cancelled.
func (h *Health) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- h.grpc.Serve(ln) }()

	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Check(ctx)
		case err := <-errc:
			return err
		case <-ctx.Done():
			h.status.Shutdown()
			h.grpc.GracefulStop()
			return nil
		}
	}
}
