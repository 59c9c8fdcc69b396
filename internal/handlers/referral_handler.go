package handlers

import (
	"github.com/gin-gonic/gin"

	"refhub_backend/internal/middleware"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
	"refhub_backend/internal/services"
	"refhub_backend/internal/services/dto"
)

type ReferralHandler struct {
	*BaseHandler
	referralService    *services.ReferralService
	applicationService *services.ApplicationService
}

func NewReferralHandler(
	base *BaseHandler,
	referralService *services.ReferralService,
	applicationService *services.ApplicationService,
) *ReferralHandler {
	return &ReferralHandler{
		BaseHandler:        base,
		referralService:    referralService,
		applicationService: applicationService,
	}
}

func (h *ReferralHandler) RegisterRoutes(r *gin.RouterGroup) {
	public := r.Group("/referrals")
	{
		public.GET("", h.List)
		public.GET("/:id", h.Get)
	}

	referrer := r.Group("/referrals", middleware.Auth(), middleware.RequireRole(models.RoleReferrer))
	{
		referrer.POST("", h.Create)
		referrer.PATCH("/:id", h.Update)
		referrer.POST("/:id/publish", h.Publish)
		referrer.POST("/:id/close", h.Close)
		referrer.DELETE("/:id", h.Delete)
		referrer.GET("/:id/applications", h.ListApplications)
	}

	mine := r.Group("/referrers/me/referrals", middleware.Auth(), middleware.RequireRole(models.RoleReferrer))
	{
		mine.GET("", h.ListMine)
	}
}

func (h *ReferralHandler) List(c *gin.Context) {
	limit, offset := h.ParsePagination(c)

	referrals, total, err := h.referralService.List(c.Request.Context(), repositories.ReferralFilter{
		Company:  c.Query("company"),
		Location: c.Query("location"),
		Skill:    c.Query("skill"),
		Search:   c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      referrals,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *ReferralHandler) Get(c *gin.Context) {
	referral, err := h.referralService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, referral)
}

func (h *ReferralHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReferralRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	referral, err := h.referralService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Created(c, referral)
}

func (h *ReferralHandler) Update(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateReferralRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	referral, err := h.referralService.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, referral)
}

func (h *ReferralHandler) Publish(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	referral, err := h.referralService.Publish(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, referral)
}

func (h *ReferralHandler) Close(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	referral, err := h.referralService.Close(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, referral)
}

func (h *ReferralHandler) Delete(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.referralService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"deleted": true})
}

func (h *ReferralHandler) ListMine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.ParsePagination(c)

	referrals, total, err := h.referralService.ListByReferrer(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      referrals,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *ReferralHandler) ListApplications(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.ParsePagination(c)

	applications, total, err := h.applicationService.ListByReferral(c.Request.Context(), c.Param("id"), userID, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      applications,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}
