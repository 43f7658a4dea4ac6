// Package grpchealth exposes the standard gRPC health service, reporting
// whether the milestone store is reachable.
package grpchealth

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"milestone-tracker/internal/middleware"
)

// Service is the name reported for the milestone API. The empty name
// reports overall server health and tracks the same state.
const Service = "milestone.v1.MilestoneService"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	store  Pinger
	log    *zap.Logger
}

func New(store Pinger, rl *middleware.RateLimiter, log *zap.Logger) *Server {
	hs := health.NewServer()
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logUnary(log),
			rateLimitUnary(rl),
		),
	)
	healthpb.RegisterHealthServer(srv, hs)
	return &Server{grpc: srv, health: hs, store: store, log: log}
}

// Refresh pings the store and publishes the result.
func (s *Server) Refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("store ping failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(Service, st)
}

// Watch refreshes the health status every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, every time.Duration) {
	s.Refresh(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, every)
			s.Refresh(pctx)
			cancel()
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING so watchers see the shutdown, then
// drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func logUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		log.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)))
		return resp, err
	}
}

func rateLimitUnary(rl *middleware.RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		key := "unknown"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			key = p.Addr.String()
			if host, _, err := net.SplitHostPort(key); err == nil {
				key = host
			}
		}
		if !rl.Allow(key) {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}
