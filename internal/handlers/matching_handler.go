package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"refhub_backend/internal/middleware"
	"refhub_backend/internal/models"
	"refhub_backend/internal/services"
)

type MatchingHandler struct {
	*BaseHandler
	matchingService *services.MatchingService
}

func NewMatchingHandler(base *BaseHandler, matchingService *services.MatchingService) *MatchingHandler {
	return &MatchingHandler{
		BaseHandler:     base,
		matchingService: matchingService,
	}
}

func (h *MatchingHandler) RegisterRoutes(r *gin.RouterGroup) {
	matching := r.Group("/matching", middleware.Auth(), middleware.RequireRole(models.RoleJobSeeker))
	{
		matching.GET("/recommendations", h.Recommendations)
		matching.GET("/referrals/:id/score", h.Score)
	}
}

func (h *MatchingHandler) Score(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	resp, err := h.matchingService.ScoreFor(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

func (h *MatchingHandler) Recommendations(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	matches, err := h.matchingService.Recommend(c.Request.Context(), userID, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, matches)
}
