package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"milestone-tracker/internal/metrics"
	"milestone-tracker/internal/service"
)

type Handler struct {
	auth       *service.AuthService
	milestones *service.MilestoneService
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func New(a *service.AuthService, ms *service.MilestoneService, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{auth: a, milestones: ms, metrics: m, log: log}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
}

func (h *Handler) NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// resultOf labels an outcome for the metrics counters.
func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	return http.StatusText(statusOf(err))
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(code, gin.H{"error": service.Message(err)})
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
