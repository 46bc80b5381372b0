package grpcserver

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

// LoggingInterceptor logs the method name, duration, and error (if any) for
// every unary RPC call.
func LoggingInterceptor(logger logpkg.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []logpkg.Field{
			logpkg.Str("method", info.FullMethod),
			logpkg.Dur("duration", time.Since(start)),
		}
		if err != nil {
			logger.Warn("rpc completed", append(fields, logpkg.Str("code", status.Code(err).String()), logpkg.Err(err))...)
		} else {
			logger.Debug("rpc completed", fields...)
		}
		return resp, err
	}
}

// RecoveryInterceptor turns a handler panic into codes.Internal and logs the stack.
func RecoveryInterceptor(logger logpkg.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered in gRPC handler",
					logpkg.Str("method", info.FullMethod),
					logpkg.Str("panic", fmt.Sprintf("%v", r)),
					logpkg.Str("stack", string(debug.Stack())),
				)
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
