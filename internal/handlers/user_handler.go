package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"refhub_backend/internal/middleware"
	"refhub_backend/internal/models"
	"refhub_backend/internal/services"
	"refhub_backend/internal/services/dto"
)

type UserHandler struct {
	*BaseHandler
	userService *services.UserService
}

func NewUserHandler(base *BaseHandler, userService *services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users", middleware.Auth())
	{
		users.GET("/me", h.GetProfile)
		users.PATCH("/me", h.UpdateProfile)
		users.GET("/me/quota", h.GetQuota)
	}

	admin := r.Group("/admin/users", middleware.Auth(), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("", h.ListUsers)
		admin.PATCH("/:id/suspend", h.SetSuspended)
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, user)
}

func (h *UserHandler) GetQuota(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	status, err := h.userService.GetQuotaStatus(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, status)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset := h.ParsePagination(c)
	role := models.UserRole(c.Query("role"))

	users, total, err := h.userService.ListUsers(c.Request.Context(), role, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      users,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *UserHandler) SetSuspended(c *gin.Context) {
	suspended, err := strconv.ParseBool(c.DefaultQuery("suspended", "true"))
	if err != nil {
		suspended = true
	}

	if err := h.userService.SetSuspended(c.Request.Context(), c.Param("id"), suspended); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"suspended": suspended})
}
