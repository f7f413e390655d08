package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stillmind-app/checkin-engine/internal/adapters/handler/http/middleware"
	"github.com/stillmind-app/checkin-engine/internal/core/services"
)

type ReflectionHandler struct {
	svc *services.ReflectionService
}

func NewReflectionHandler(svc *services.ReflectionService) *ReflectionHandler {
	return &ReflectionHandler{svc: svc}
}

type createReflectionRequest struct {
	Text string `json:"text" binding:"required"`
}

type linkReflectionRequest struct {
	ReflectionID string `json:"reflection_id" binding:"required"`
}

func (h *ReflectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	reflections := router.Group("/reflections")
	{
		reflections.POST("", h.Create)
		reflections.GET("", h.List)
		reflections.DELETE("/:occurredAt", h.Delete)
	}

	checkins := router.Group("/checkins/:id/reflections")
	{
		checkins.POST("", h.Link)
		checkins.GET("", h.ListForCheckin)
	}
}

func (h *ReflectionHandler) Create(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	reflection, err := h.svc.Create(c.Request.Context(), userKey, req.Text)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reflection)
}

func (h *ReflectionHandler) List(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reflections, err := h.svc.List(c.Request.Context(), userKey)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, reflections)
}

func (h *ReflectionHandler) Delete(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	occurredAt, err := strconv.ParseInt(c.Param("occurredAt"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occurredAt must be a millisecond timestamp"})
		return
	}

	deletedID, err := h.svc.Delete(c.Request.Context(), userKey, occurredAt)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_id": deletedID})
}

func (h *ReflectionHandler) Link(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req linkReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ids, err := h.svc.Link(c.Request.Context(), userKey, c.Param("id"), req.ReflectionID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reflection_ids": ids})
}

func (h *ReflectionHandler) ListForCheckin(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reflections, err := h.svc.ListForCheckin(c.Request.Context(), userKey, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, reflections)
}
