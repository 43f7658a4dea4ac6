package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"milestone-tracker/internal/auth"
	"milestone-tracker/internal/middleware"
	"milestone-tracker/internal/model"
)

// caller is set by middleware.Auth; a miss means the route was wired without it.
func caller(c *gin.Context) auth.Identity {
	id, ok := middleware.IdentityFrom(c.Request.Context())
	if !ok {
		panic("milestone route mounted without auth middleware")
	}
	return id
}

func (h *Handler) ListMilestones(c *gin.Context) {
	ms, err := h.milestones.List(c.Request.Context(), caller(c))
	h.metrics.CountMilestoneOp("list", resultOf(err))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ms)
}

func (h *Handler) GetMilestone(c *gin.Context) {
	m, err := h.milestones.Get(c.Request.Context(), caller(c), c.Param("id"))
	h.metrics.CountMilestoneOp("get", resultOf(err))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) CreateMilestone(c *gin.Context) {
	var in model.MilestoneInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	m, err := h.milestones.Create(c.Request.Context(), caller(c), in)
	h.metrics.CountMilestoneOp("create", resultOf(err))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMilestone(c *gin.Context) {
	var p model.MilestonePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badBody(c)
		return
	}
	m, err := h.milestones.Update(c.Request.Context(), caller(c), c.Param("id"), p)
	h.metrics.CountMilestoneOp("update", resultOf(err))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMilestone(c *gin.Context) {
	err := h.milestones.Delete(c.Request.Context(), caller(c), c.Param("id"))
	h.metrics.CountMilestoneOp("delete", resultOf(err))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Milestone deleted successfully"})
}
