package sleepclock

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/sleep-clock/internal/logger"
)

// ActorMetadataKey carries the username@hostname of the caller.
const ActorMetadataKey = "x-sleepclock-actor"

// RateLimitInterceptor rejects unary calls with ResourceExhausted once limiter runs dry.
func RateLimitInterceptor(limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.Allow() {
			logger.WarnKV(ctx, "Request rejected by rate limiter", "method", info.FullMethod)

			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every unary call at debug level and tags the
// request logger with the calling actor.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()

		if actor := actorFromContext(ctx); actor != "" {
			ctx = logger.WithKV(ctx, "actor", actor)
		}

		resp, err := handler(ctx, req)

		logger.DebugKV(ctx, "Handled request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(started),
		)

		return resp, err
	}
}

func actorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if values := md.Get(ActorMetadataKey); len(values) > 0 {
		return values[0]
	}

	return ""
}
