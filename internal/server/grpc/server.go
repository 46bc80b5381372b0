package grpcserver

import (
	"context"
	"net"
	"sync"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	feedv1 "github.com/rzbill/eventfeed/api/eventfeed/v1"
	"github.com/rzbill/eventfeed/internal/feed"
	"github.com/rzbill/eventfeed/internal/runtime"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	logger logpkg.Logger

	mu  sync.Mutex
	lis net.Listener
}

// New constructs a gRPC server with recovery and logging interceptors and
// registers the feed and health services.
func New(rt *runtime.Runtime, svc *feed.Service, logger logpkg.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	logger = logger.WithComponent("grpc")

	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		),
	}, opts...)

	s := &Server{rt: rt, grpc: grpc.NewServer(opts...), logger: logger}
	healthpb.RegisterHealthServer(s.grpc, &healthSvc{rt: rt})
	feedv1.RegisterFeedServiceServer(s.grpc, &feedSvc{svc: svc, logger: logger})
	reflection.Register(s.grpc)
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Addr returns the bound address, or nil before Serve starts.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}
