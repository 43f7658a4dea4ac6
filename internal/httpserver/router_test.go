package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"milestone-tracker/internal/auth"
	"milestone-tracker/internal/handler"
	"milestone-tracker/internal/metrics"
	"milestone-tracker/internal/middleware"
	"milestone-tracker/internal/service"
	"milestone-tracker/internal/store/memstore"
)

func init() { gin.SetMode(gin.TestMode) }

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, p Pinger) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := memstore.New()
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	log := zap.NewNop()
	m := metrics.New()
	a := service.NewAuthService(st.Users(), tokens, log)
	ms := service.NewMilestoneService(st.Milestones(), st.Users(), log)
	if p == nil {
		p = st
	}
	return NewRouter(Deps{
		Handler: handler.New(a, ms, m, log),
		Auth:    a,
		Limiter: middleware.NewRateLimiter(ctx, 1000, 1000),
		Metrics: m,
		Store:   p,
		Log:     log,
	})
}

func TestReadyReportsStoreFailure(t *testing.T) {
	r := newTestRouter(t, downStore{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestPreflightOnProtectedRoute(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/milestones/abc", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownMethodIsRouteNotFound(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/milestones", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Route not found"}`, rec.Body.String())
}
