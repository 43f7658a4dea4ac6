package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"milestone-tracker/internal/auth"
	"milestone-tracker/internal/config"
	"milestone-tracker/internal/grpchealth"
	"milestone-tracker/internal/handler"
	"milestone-tracker/internal/httpserver"
	"milestone-tracker/internal/logger"
	"milestone-tracker/internal/metrics"
	"milestone-tracker/internal/middleware"
	"milestone-tracker/internal/service"
	"milestone-tracker/internal/store"
	"milestone-tracker/internal/store/filestore"
	"milestone-tracker/internal/store/memstore"
	"milestone-tracker/internal/store/pgstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store, lg)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}
	m := metrics.New()
	httpRL, grpcRL := newLimiters(ctx, cfg.RateLimit)

	authSvc := service.NewAuthService(st.Users(), tokens, lg)
	msSvc := service.NewMilestoneService(st.Milestones(), st.Users(), lg)

	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpserver.NewRouter(httpserver.Deps{
		Handler: handler.New(authSvc, msSvc, m, lg),
		Auth:    authSvc,
		Limiter: httpRL,
		Metrics: m,
		Store:   st,
		Log:     lg,
	})
	httpSrv := httpserver.NewServer(":"+cfg.Port, router, lg)

	errc := make(chan error, 2)
	go func() { errc <- httpSrv.ListenAndServe() }()

	var grpcSrv *grpchealth.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpchealth.New(st, grpcRL, lg)
		go grpcSrv.Watch(ctx, 10*time.Second)
		go func() { errc <- grpcSrv.Serve(lis) }()
	}

	lg.Info("server started",
		zap.String("port", cfg.Port),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.String("store", cfg.Store.Driver),
		zap.Duration("token_ttl", tokens.TTL()))

	select {
	case <-ctx.Done():
		lg.Info("shutting down")
	case err := <-errc:
		if err != nil {
			lg.Error("listener failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	return httpSrv.Shutdown(shutdownCtx)
}

// newLimiters returns separate buckets for the auth routes and for gRPC, so
// health probes never spend a client's login allowance.
func newLimiters(ctx context.Context, cfg config.RateLimitConfig) (httpRL, grpcRL *middleware.RateLimiter) {
	return middleware.NewRateLimiter(ctx, cfg.RPS, cfg.Burst),
		middleware.NewRateLimiter(ctx, cfg.RPS, cfg.Burst)
}

func openStore(ctx context.Context, cfg config.StoreConfig, lg *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		lg.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), nil
	case config.DriverPostgres:
		return pgstore.Open(ctx, cfg.DatabaseURL, lg)
	case config.DriverFile:
		return filestore.Open(cfg.DataDir, lg)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
