package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
	"github.com/stillmind-app/checkin-engine/internal/core/services"
)

type RankingHandler struct {
	svc *services.RankingService
}

func NewRankingHandler(svc *services.RankingService) *RankingHandler {
	return &RankingHandler{svc: svc}
}

func (h *RankingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/rankings/:period", h.Top)
}

func (h *RankingHandler) Top(c *gin.Context) {
	periodType := domain.PeriodType(c.Param("period"))

	limit := 0
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	ranked, err := h.svc.Top(c.Request.Context(), periodType, c.Query("key"), limit)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":   string(periodType),
		"rankings": ranked,
	})
}
