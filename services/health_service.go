// services/health_service.go

package services

import (
	"context"

	"github.com/sirupsen/logrus"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthCheckService implements the gRPC health protocol on top of the cart
// storage ping.
type HealthCheckService struct {
	store Pinger
	log   *logrus.Entry
	healthpb.UnimplementedHealthServer
}

func NewHealthCheckService(store Pinger, log *logrus.Entry) *HealthCheckService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &HealthCheckService{store: store, log: log.WithField("component", "health")}
}

// Check reports SERVING while the storage answers pings.
func (h *HealthCheckService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	h.log.WithField("service", req.GetService()).Debug("health check called")
	if h.store.Ping(ctx) {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
	}
	h.log.Warn("cart storage is not answering pings")
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
}
