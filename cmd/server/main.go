package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"grandpa/config"
	"grandpa/internal/api"
	"grandpa/internal/cache"
	"grandpa/internal/database"
	"grandpa/internal/messaging"
)

// App is everything main needs to run after wiring.
type App struct {
	server *api.Server
	grpc   *grpc.Server
	health *health.Server
	hub    *messaging.Hub
}

func ProvideApp(server *api.Server, grpcServer *grpc.Server, healthServer *health.Server, hub *messaging.Hub) *App {
	return &App{server: server, grpc: grpcServer, health: healthServer, hub: hub}
}

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("grandpa", pflag.ContinueOnError)
	port := flags.String("port", "", "HTTP listen port (overrides PORT)")
	grpcPort := flags.String("grpc-port", "", "gRPC listen port (overrides GRPC_PORT)")
	migrate := flags.Bool("migrate", false, "create or update the schema before serving")
	debug := flags.Bool("debug", false, "log at debug level")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *grpcPort != "" {
		cfg.GRPCPort = *grpcPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if *migrate {
		if err := db.Migrate(); err != nil {
			return err
		}
	}

	redis, err := cache.NewRedisCache(cfg)
	if err != nil {
		return err
	}
	if redis != nil {
		defer redis.Close()
	}

	app := InitializeApp(cfg, db, redis)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if redis != nil {
		relay := messaging.NewRedisRelay(redis, app.hub)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("redis relay stopped", "err", err)
			}
		}()
		slog.Info("cross-instance delivery through redis", "addr", cfg.RedisAddr)
	}

	go api.WatchHealth(ctx, db, app.health, 15*time.Second)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	go func() {
		slog.Info("starting gRPC server", "port", cfg.GRPCPort)
		if err := app.grpc.Serve(lis); err != nil {
			slog.Error("grpc server failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errc:
		stop()
		app.grpc.Stop()
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	app.grpc.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
