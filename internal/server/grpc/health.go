// Package grpc exposes model readiness through the standard gRPC health service.
package grpc

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ekisa-team/chatterbox-serve/internal/model"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "chatterbox.TTS"

// HealthServer serves grpc.health.v1.Health. It is SERVING only while the model is ready.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
}

// NewHealthServer creates a health server that follows the registry's readiness.
func NewHealthServer(models *model.Registry, opts ...grpc.ServerOption) *HealthServer {
	s := &HealthServer{
		server: grpc.NewServer(opts...),
		health: health.NewServer(),
	}

	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	models.OnReady(s.setReady)

	return s
}

func (s *HealthServer) setReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	slog.Debug("gRPC health status changed", "status", status.String())
}

// Health returns the underlying health service.
func (s *HealthServer) Health() healthpb.HealthServer {
	return s.health
}

// Serve accepts connections on l until Stop.
func (s *HealthServer) Serve(l net.Listener) error {
	slog.Info("gRPC health server listening", "addr", l.Addr().String())
	return s.server.Serve(l)
}

// Stop reports NOT_SERVING to watchers and drains the server.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
