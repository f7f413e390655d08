package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stillmind-app/checkin-engine/internal/adapters/handler/http/middleware"
	"github.com/stillmind-app/checkin-engine/internal/core/domain"
	"github.com/stillmind-app/checkin-engine/internal/core/services"
)

type CheckinHandler struct {
	svc *services.CheckinService
}

func NewCheckinHandler(svc *services.CheckinService) *CheckinHandler {
	return &CheckinHandler{
		svc: svc,
	}
}

type recordCheckinRequest struct {
	DurationMinutes int      `json:"duration_minutes"`
	Rating          int      `json:"rating"`
	ReflectionIDs   []string `json:"reflection_ids"`

	// Timezone is an IANA name used to derive the caller-local calendar day.
	Timezone string `json:"timezone"`
}

func (h *CheckinHandler) RegisterRoutes(router *gin.RouterGroup) {
	checkins := router.Group("/checkins")
	{
		checkins.POST("", h.Record)
		checkins.GET("", h.List)
	}
}

func (h *CheckinHandler) Record(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req recordCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	var loc *time.Location
	if req.Timezone != "" {
		parsed, err := time.LoadLocation(req.Timezone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
			return
		}
		loc = parsed
	}

	input := services.RecordCheckinInput{
		UserKey:         userKey,
		DurationMinutes: req.DurationMinutes,
		Rating:          req.Rating,
		ReflectionIDs:   req.ReflectionIDs,
		Location:        loc,
	}

	out, err := h.svc.Record(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, out)
}

func (h *CheckinHandler) List(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	records, err := h.svc.ListByDate(c.Request.Context(), userKey, c.Query("date"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDuration) ||
		errors.Is(err, domain.ErrInvalidRating) ||
		errors.Is(err, domain.ErrInvalidDate) ||
		errors.Is(err, domain.ErrInvalidMonth) ||
		errors.Is(err, domain.ErrReflectionTextEmpty) ||
		errors.Is(err, domain.ErrReflectionTextTooLong) ||
		errors.Is(err, services.ErrInvalidPeriodType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrCheckinNotFound) || errors.Is(err, domain.ErrReflectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	default:
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
