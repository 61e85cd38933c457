package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name reported through the gRPC health protocol.
const ServiceName = "storefront.admin.Shell"

// Health reports NOT_SERVING until the session store has hydrated.
type Health struct {
	server *health.Server
}

func NewHealth() *Health {
	h := &Health{server: health.NewServer()}
	h.SetServing(false)
	return h
}

func (h *Health) SetServing(serving bool) {
	state := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		state = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", state)
	h.server.SetServingStatus(ServiceName, state)
}

func (h *Health) Shutdown() {
	h.server.Shutdown()
}

// NewServer builds the gRPC server with the health service registered.
func NewServer(h *Health, log logrus.FieldLogger) *grpc.Server {
	server := grpc.NewServer(grpc.UnaryInterceptor(NewLoggingUnaryInterceptor(log)))
	healthpb.RegisterHealthServer(server, h.server)
	return server
}

func NewLoggingUnaryInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		})
		if err != nil {
			entry.WithError(err).Warn("grpc call failed")
		} else {
			entry.Debug("grpc call")
		}
		return resp, err
	}
}
