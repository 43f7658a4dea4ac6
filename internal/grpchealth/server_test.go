package grpchealth

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"milestone-tracker/internal/middleware"
)

type flakyStore struct{ down atomic.Bool }

func (f *flakyStore) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("store unreachable")
	}
	return nil
}

func start(t *testing.T, st Pinger, rps float64, burst int) (*Server, healthpb.HealthClient) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := New(st, middleware.NewRateLimiter(ctx, rps, burst), zap.NewNop())
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return srv, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, svc string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthFollowsStore(t *testing.T) {
	st := &flakyStore{}
	srv, client := start(t, st, 1000, 1000)

	srv.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, Service))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))

	st.down.Store(true)
	srv.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, Service))
}

func TestUnknownService(t *testing.T) {
	srv, client := start(t, &flakyStore{}, 1000, 1000)
	srv.Refresh(context.Background())

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRateLimited(t *testing.T) {
	srv, client := start(t, &flakyStore{}, 0.001, 1)
	srv.Refresh(context.Background())

	check(t, client, Service)
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: Service})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
