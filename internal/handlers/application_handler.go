package handlers

import (
	"github.com/gin-gonic/gin"

	"refhub_backend/internal/middleware"
	"refhub_backend/internal/models"
	"refhub_backend/internal/services"
	"refhub_backend/internal/services/dto"
)

type ApplicationHandler struct {
	*BaseHandler
	applicationService *services.ApplicationService
}

func NewApplicationHandler(base *BaseHandler, applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        base,
		applicationService: applicationService,
	}
}

func (h *ApplicationHandler) RegisterRoutes(r *gin.RouterGroup) {
	apps := r.Group("/applications", middleware.Auth())
	{
		apps.POST("", middleware.RequireRole(models.RoleJobSeeker), h.Apply)
		apps.GET("/mine", middleware.RequireRole(models.RoleJobSeeker), h.ListMine)
		apps.GET("/:id", h.Get)
		apps.POST("/:id/withdraw", middleware.RequireRole(models.RoleJobSeeker), h.Withdraw)
		apps.PATCH("/:id/status", middleware.RequireRole(models.RoleReferrer), h.UpdateStatus)
		apps.POST("/:id/messages", h.AddMessage)
	}
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateApplicationRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	application, err := h.applicationService.Apply(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Created(c, application)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	application, err := h.applicationService.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, application)
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.ParsePagination(c)

	applications, total, err := h.applicationService.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      applications,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	application, err := h.applicationService.Withdraw(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, application)
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	application, err := h.applicationService.UpdateStatus(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, application)
}

func (h *ApplicationHandler) AddMessage(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.AddMessageRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	application, err := h.applicationService.AddMessage(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, application)
}
