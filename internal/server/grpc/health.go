package grpcserver

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	feedv1 "github.com/rzbill/eventfeed/api/eventfeed/v1"
	"github.com/rzbill/eventfeed/internal/runtime"
)

type healthSvc struct {
	healthpb.UnimplementedHealthServer
	rt *runtime.Runtime
}

// Check reports SERVING while storage answers. "" and the feed service are
// the only known names.
func (h *healthSvc) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != feedv1.ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	if err := h.rt.CheckHealth(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
