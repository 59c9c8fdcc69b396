package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refhub_backend/internal/handlers"
)

// RegisterRoutes mounts every handler under /api/v1.
func RegisterRoutes(r *gin.Engine, h *handlers.AppHandlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	h.Auth.RegisterRoutes(api)
	h.User.RegisterRoutes(api)
	h.Referral.RegisterRoutes(api)
	h.Application.RegisterRoutes(api)
	h.Payment.RegisterRoutes(api)
	h.Matching.RegisterRoutes(api)
	h.Notification.RegisterRoutes(api)
}
