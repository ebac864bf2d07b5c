package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"grandpa/internal/database"
)

func ProvideHealthServer() *health.Server {
	return health.NewServer()
}

// NewGRPCServer serves the standard health service plus reflection.
func NewGRPCServer(hs *health.Server) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s
}

// NewGRPCWeb exposes the gRPC services to browsers on the HTTP port.
func NewGRPCWeb(s *grpc.Server) *grpcweb.WrappedGrpcServer {
	return grpcweb.WrapServer(s,
		grpcweb.WithOriginFunc(func(string) bool { return true }),
	)
}

// WatchHealth keeps the overall serving status in line with database
// reachability until ctx is cancelled.
func WatchHealth(ctx context.Context, db *database.Database, hs *health.Server, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err := db.PingContext(pingCtx); err != nil {
			slog.WarnContext(ctx, "database ping failed", "err", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			check()
		}
	}
}
