package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stillmind-app/checkin-engine/internal/adapters/handler/http/middleware"
	"github.com/stillmind-app/checkin-engine/internal/core/services"
)

type StatsHandler struct {
	svc *services.StatsService
}

func NewStatsHandler(svc *services.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetUserStats)
	r.GET("/stats/monthly", h.GetMonthlyStats)
}

func (h *StatsHandler) GetUserStats(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.svc.GetUserStats(c.Request.Context(), userKey)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetMonthlyStats(c *gin.Context) {
	userKey, ok := middleware.GetUserKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month is required (YYYY-MM)"})
		return
	}

	stats, err := h.svc.GetMonthlyStats(c.Request.Context(), userKey, month)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
