package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oshokin/alarm-gateway/internal/logger"
)

// HealthServiceName is the service name reported by the health endpoint.
const HealthServiceName = "alarm.gateway"

// healthEndpoint serves grpc.health.v1. A nil endpoint is a disabled one.
type healthEndpoint struct {
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

// startHealth starts serving health checks on address, reporting NOT_SERVING
// until serving is called. An empty address disables the endpoint.
func startHealth(ctx context.Context, address string) (*healthEndpoint, error) {
	if address == "" {
		return nil, nil //nolint:nilnil // A nil endpoint means disabled.
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	h := &healthEndpoint{
		server: grpc.NewServer(),
		health: health.NewServer(),
		lis:    lis,
	}

	h.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	healthpb.RegisterHealthServer(h.server, h.health)
	reflection.Register(h.server)

	go func() {
		if err := h.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.ErrorKV(ctx, "Health endpoint stopped", "error", err)
		}
	}()

	return h, nil
}

func (h *healthEndpoint) serving() {
	if h == nil {
		return
	}

	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_SERVING)
}

func (h *healthEndpoint) address() string {
	if h == nil {
		return ""
	}

	return h.lis.Addr().String()
}

// stop reports NOT_SERVING to watchers and stops the gRPC server.
func (h *healthEndpoint) stop() {
	if h == nil {
		return
	}

	h.health.Shutdown()
	h.server.GracefulStop()
}
