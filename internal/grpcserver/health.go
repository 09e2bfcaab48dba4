// internal/grpcserver/health.go
package grpcserver

import (
	"context"
	"net"

	gp "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes grpc.health.v1 so orchestrators can check the adapter
// the same way they check the other payment services.
type HealthServer struct {
	grpc    *grpc.Server
	health  *health.Server
	service string
}

func NewHealthServer(service string) *HealthServer {
	g := grpc.NewServer(
		grpc.UnaryInterceptor(gp.UnaryServerInterceptor),
		grpc.StreamInterceptor(gp.StreamServerInterceptor),
	)
	h := health.NewServer()
	healthpb.RegisterHealthServer(g, h)

	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)

	gp.Register(g)

	return &HealthServer{grpc: g, health: h, service: service}
}

// Serve blocks until Stop is called or the listener fails.
func (s *HealthServer) Serve(lis net.Listener) error {
	logrus.WithField("addr", lis.Addr().String()).Info("grpc health serving")
	return s.grpc.Serve(lis)
}

// Stop flips every service to NOT_SERVING, then drains connections until ctx
// is done. Open Watch streams never end on their own, so the drain is bounded
// and falls back to a hard stop.
func (s *HealthServer) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logrus.Warn("grpc health drain timed out, forcing stop")
		s.grpc.Stop()
		<-done
	}
}
